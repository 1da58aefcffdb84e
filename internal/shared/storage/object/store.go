package object

import (
	"context"
	"io"
)

// ObjectStore is the contract for saving and retrieving binary objects.
// Save places the object under the owner's namespace and returns the
// generated key; SaveWithKey writes derived objects at a caller-chosen key.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
