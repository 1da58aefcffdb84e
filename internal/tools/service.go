package tools

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"academic-backend/internal/documents"
	"academic-backend/internal/extract"
	"academic-backend/internal/shared/storage/object"
)

// Service resolves the source text for a tool invocation and delegates to
// the Invoker. Callers supply either raw text or a document they own.
type Service struct {
	Invoker *Invoker
	DocRepo documents.DocumentsRepo
	Store   object.ObjectStore
}

// InvokeWithText runs a tool against caller-supplied text.
func (s *Service) InvokeWithText(ctx context.Context, toolName, text string, parameters map[string]string) (string, error) {
	return s.Invoker.Invoke(ctx, toolName, text, parameters)
}

// InvokeWithDocument runs a tool against a stored document's extracted text,
// extracting on first use the same way an analysis run does.
func (s *Service) InvokeWithDocument(ctx context.Context, toolName, userID, documentID string, parameters map[string]string) (string, error) {
	doc, err := s.DocRepo.GetByID(ctx, userID, documentID)
	if err != nil {
		return "", err
	}

	extractedKey := doc.ExtractedTextKey
	if extractedKey == "" {
		if _, err := extract.ExtractText(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName); err != nil {
			return "", err
		}
		extractedKey = doc.StorageKey + ".extracted.txt"
		if err := s.DocRepo.UpdateExtraction(ctx, doc.UserID, doc.ID, extractedKey, time.Now().UTC()); err != nil {
			return "", fmt.Errorf("document %s: update extraction: %w", doc.ID, err)
		}
	}

	body, err := s.Store.Open(ctx, extractedKey)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	return s.Invoker.Invoke(ctx, toolName, text, parameters)
}
