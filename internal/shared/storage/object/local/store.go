package local

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"academic-backend/internal/shared/storage/object"
	"academic-backend/internal/shared/util"
)

// Store implements ObjectStore on the local filesystem. Objects live under
// baseDir/<owner-key>/, one directory per user identity.
type Store struct {
	baseDir string
}

// New creates a local object store rooted at baseDir.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

// Save writes the reader to disk under the owner's namespace. The random
// prefix keeps repeated uploads of the same file name from clobbering
// each other.
func (s *Store) Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (string, int64, string, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	safeName, err := util.SafeFileName(fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("file name: %w", err)
	}

	ownerKey := util.OwnerKey(ownerID)
	objectName := randomID() + "_" + safeName

	dirPath := filepath.Join(s.baseDir, ownerKey)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", 0, "", fmt.Errorf("mkdir: %w", err)
	}

	head, body, err := sniffHead(r)
	if err != nil {
		return "", 0, "", err
	}
	mimeType := http.DetectContentType(head)

	size, err := writeFile(filepath.Join(dirPath, objectName), body)
	if err != nil {
		return "", 0, "", err
	}

	return filepath.Join(ownerKey, objectName), size, mimeType, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// SaveWithKey writes the reader to disk at a caller-chosen storage key.
// Derived objects like extracted text use this to sit next to their source.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	_ = contentType // local files carry no content-type metadata

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	return writeFile(fullPath, r)
}

// resolve maps a storage key to an absolute path, refusing keys that would
// escape the base directory.
func (s *Store) resolve(storageKey string) (string, error) {
	clean := filepath.Clean(storageKey)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

func writeFile(fullPath string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	return written, nil
}

// sniffHead reads up to 512 bytes for content-type detection and returns a
// reader that replays them ahead of the rest of the stream.
func sniffHead(r io.Reader) ([]byte, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, fmt.Errorf("read head: %w", err)
	}
	return head[:n], io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.ObjectStore = (*Store)(nil)
