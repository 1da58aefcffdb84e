package documents

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	GetCurrentByUser(ctx context.Context, userID string) (Document, error)
	UpdateExtraction(ctx context.Context, userID, documentID, extractedTextKey string, extractedAt time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
}
