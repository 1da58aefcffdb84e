package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"academic-backend/internal/documents"
	"academic-backend/internal/shared/server/middleware"
	"academic-backend/internal/shared/storage/object"
	local "academic-backend/internal/shared/storage/object/local"
)

func setupToolsRouter(t *testing.T) (*gin.Engine, *fakeCompleter, *documents.MemoryRepo, object.ObjectStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fc := &fakeCompleter{}
	store := local.New(t.TempDir())
	docRepo := documents.NewMemoryRepo()
	svc := &Service{
		Invoker: &Invoker{Completer: fc},
		DocRepo: docRepo,
		Store:   store,
	}

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(api)

	return router, fc, docRepo, store
}

func invokeTool(t *testing.T, router *gin.Engine, name string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/"+name, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestToolInvokeWithText(t *testing.T) {
	router, fc, _, _ := setupToolsRouter(t)

	resp := invokeTool(t, router, "flashcards", map[string]any{
		"text":       "mitochondria are the powerhouse of the cell",
		"parameters": map[string]string{"numCards": "5"},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got struct {
		Tool   string `json:"tool"`
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Tool != "flashcards" {
		t.Fatalf("tool = %s", got.Tool)
	}
	if got.Result != "tool output" {
		t.Fatalf("result = %s", got.Result)
	}
	if fc.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", fc.calls)
	}
	if fc.lastVars["NumCards"] != "5" {
		t.Fatalf("NumCards = %q", fc.lastVars["NumCards"])
	}
}

func TestToolInvokeUnknownToolIs404(t *testing.T) {
	router, fc, _, _ := setupToolsRouter(t)

	resp := invokeTool(t, router, "mind-reader", map[string]any{"text": "anything"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if fc.calls != 0 {
		t.Fatalf("completer calls = %d, want 0", fc.calls)
	}
}

func TestToolInvokeRequiresSource(t *testing.T) {
	router, _, _, _ := setupToolsRouter(t)

	resp := invokeTool(t, router, "flashcards", map[string]any{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestToolInvokeWithDocument(t *testing.T) {
	router, fc, docRepo, store := setupToolsRouter(t)

	userID := "guest:test-guest"
	extractedKey, _, _, err := store.Save(context.Background(), userID, "notes.txt", bytes.NewReader([]byte("notes on osmosis")))
	if err != nil {
		t.Fatalf("save extracted text: %v", err)
	}
	doc := documents.Document{
		ID:               "doc-tools",
		UserID:           userID,
		FileName:         "notes.txt",
		MimeType:         "text/plain",
		StorageKey:       "original",
		ExtractedTextKey: extractedKey,
		CreatedAt:        time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	resp := invokeTool(t, router, "study_guide", map[string]any{"documentId": doc.ID})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if fc.calls != 1 {
		t.Fatalf("completer calls = %d, want 1", fc.calls)
	}
	if fc.lastID != "tool/study_guide" {
		t.Fatalf("template = %s", fc.lastID)
	}
}

func TestToolInvokeForeignDocumentIs404(t *testing.T) {
	router, fc, docRepo, _ := setupToolsRouter(t)

	doc := documents.Document{
		ID:         "doc-foreign",
		UserID:     "guest:someone-else",
		FileName:   "notes.txt",
		MimeType:   "text/plain",
		StorageKey: "original",
		CreatedAt:  time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	resp := invokeTool(t, router, "flashcards", map[string]any{"documentId": doc.ID})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if fc.calls != 0 {
		t.Fatalf("completer calls = %d, want 0", fc.calls)
	}
}
