package tools

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-backend/internal/documents"
	"academic-backend/internal/extract"
	"academic-backend/internal/llm"
	"academic-backend/internal/shared/server/middleware"
	"academic-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the tools service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches tool routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tools/:name", h.invoke)
}

type invokeRequest struct {
	DocumentID string            `json:"documentId"`
	Text       string            `json:"text"`
	Parameters map[string]string `json:"parameters"`
}

func (h *Handler) invoke(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	toolName := c.Param("name")

	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.DocumentID == "" && req.Text == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId or text is required", nil)
		return
	}

	var (
		result string
		err    error
	)
	if req.DocumentID != "" {
		result, err = h.Svc.InvokeWithDocument(c.Request.Context(), toolName, userID, req.DocumentID, req.Parameters)
	} else {
		result, err = h.Svc.InvokeWithText(c.Request.Context(), toolName, req.Text, req.Parameters)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTool):
			respond.Error(c, http.StatusNotFound, "unknown_tool", "unknown tool", nil)
		case errors.Is(err, ErrEmptyText):
			respond.Error(c, http.StatusBadRequest, "validation_error", "source text is required", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case extract.IsExtractionError(err):
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_error", "document text could not be extracted", nil)
		default:
			respond.Error(c, toolErrorStatus(err), "tool_error", "tool invocation failed", []map[string]string{
				{"field": "errorKind", "issue": string(llm.KindOf(err))},
			})
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"tool":   normalizeName(toolName),
		"result": result,
	})
}

func toolErrorStatus(err error) int {
	switch llm.KindOf(err) {
	case llm.KindRateLimited:
		return http.StatusTooManyRequests
	case llm.KindTimeout:
		return http.StatusGatewayTimeout
	case llm.KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
