// Package blob owns the raw bytes of uploaded media. Blobs are addressed by
// a generated stored name; the catalog maps those names to user-visible
// metadata. Two backends exist: the local file system and S3-compatible
// object storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is the blob backend capability surface. Delete reports
// common.ErrorNotFound for an absent blob and lets the caller decide
// whether that is fatal.
type Store interface {
	// Save writes the content under a freshly generated stored name that
	// keeps the original extension, and returns that name.
	Save(ctx context.Context, content io.Reader, originalExtension string) (string, error)

	// Delete removes the blob with the given stored name.
	Delete(ctx context.Context, storedName string) error

	// Exists reports whether a blob with the given stored name is present.
	Exists(ctx context.Context, storedName string) (bool, error)

	// Open returns the blob content for streaming; the caller closes it.
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)

	// List returns all stored names currently held, for reconciliation.
	List(ctx context.Context) ([]string, error)
}

// ErrUnsafeName is returned when a stored name is not a clean single path
// element. Names like "../x" or "a/b" must never reach the file system.
var ErrUnsafeName = errors.New("unsafe stored name")

// NewStoredName generates a collision-resistant stored name carrying the
// (sanitized) original extension. Random UUIDs are used instead of
// timestamps so concurrent uploads cannot collide.
func NewStoredName(originalExtension string) string {
	return uuid.NewString() + sanitizeExtension(originalExtension)
}

// sanitizeExtension reduces an untrusted extension to a single lowercase
// ".<alnum>" element, or "" when nothing safe remains.
func sanitizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return ""
	}
	for _, r := range ext {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			continue
		}
		return ""
	}
	return "." + ext
}

// checkStoredName rejects anything that is not a clean single path element.
func checkStoredName(storedName string) error {
	if storedName == "" ||
		strings.ContainsAny(storedName, `/\`) ||
		strings.Contains(storedName, "..") ||
		filepath.Base(storedName) != storedName {
		return fmt.Errorf("%w: %q", ErrUnsafeName, storedName)
	}
	return nil
}
