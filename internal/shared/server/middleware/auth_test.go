package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"academic-backend/internal/shared/auth"
)

func newAuthRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth())
	var seenUser string
	r.GET("/whoami", func(c *gin.Context) {
		seenUser = UserIDFromContext(c)
		c.Status(http.StatusOK)
	})
	return r, &seenUser
}

func TestAuthRejectsMissingIdentity(t *testing.T) {
	r, _ := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthAcceptsGuestHeader(t *testing.T) {
	r, seenUser := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Guest-Id", "abc123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if *seenUser != "guest:abc123" {
		t.Fatalf("user = %q", *seenUser)
	}
}

func TestAuthAcceptsValidBearer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.IssueToken("user-42", "", "", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	r, seenUser := newAuthRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if *seenUser != "user-42" {
		t.Fatalf("user = %q", *seenUser)
	}
}

func TestAuthRejectsBadBearer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r, _ := newAuthRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
