package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"academic-backend/internal/shared/telemetry"
)

// Logging emits one structured log line per request. Preflight requests are
// skipped; analysis lifecycle transitions are logged by the analyses service
// itself, not here.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"bytes":       c.Writer.Size(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if userID := UserIDFromContext(c); userID != "" {
			fields["user_id"] = userID
			fields["is_guest"] = IsGuest(c)
		}
		telemetry.Info("request.complete", fields)
	}
}
