// Package util holds small helpers shared by the storage backends.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 128

// OwnerKey maps a user identity (JWT subject or guest ID) to a fixed-width
// hex string safe to embed in filesystem paths and object keys. Identities
// like "guest:abc" carry characters that are not key-safe.
func OwnerKey(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])
}

// SafeFileName normalizes an uploaded file name for use inside a storage
// key. Path separators and whitespace become underscores; traversal
// patterns and control characters are rejected outright.
func SafeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}

	var b strings.Builder
	for _, ch := range strings.TrimSpace(name) {
		switch {
		case ch == '/' || ch == '\\' || unicode.IsSpace(ch):
			b.WriteByte('_')
		case unicode.IsControl(ch):
			return "", errors.New("invalid file name")
		default:
			b.WriteRune(ch)
		}
	}

	s := b.String()
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLen {
		s = s[len(s)-maxFileNameLen:]
	}
	return s, nil
}
