// Package playback decides, for a requested file name, whether the blob
// exists and which content type to stream it as. The decision is kept free
// of HTTP and rendering so it stays a pure, testable function.
package playback

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/okovalenko/mediadrop/internal/server/blob"
)

// Content types served. The table is extension-based on purpose: no
// sniffing, everything that is not .mp4 plays as audio.
const (
	ContentTypeVideo = "video/mp4"
	ContentTypeAudio = "audio/mpeg"
)

// ErrBadName is returned for requested names that are empty or contain
// path separators or traversal sequences. Such names never reach the blob
// store.
var ErrBadName = errors.New("bad file name")

// Resolution is the outcome of resolving a playback request.
type Resolution struct {
	StoredName  string
	Exists      bool
	ContentType string
	Video       bool
}

// CleanName validates an untrusted requested name down to a single clean
// path element.
func CleanName(requested string) (string, error) {
	if requested == "" ||
		strings.ContainsAny(requested, `/\`) ||
		strings.Contains(requested, "..") ||
		filepath.Base(requested) != requested ||
		requested == "." {
		return "", ErrBadName
	}
	return requested, nil
}

// ContentType maps a file name to its streaming content type.
func ContentType(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".mp4") {
		return ContentTypeVideo
	}
	return ContentTypeAudio
}

// Resolve validates the requested name and checks the blob store for it.
func Resolve(ctx context.Context, store blob.Store, requested string) (Resolution, error) {
	name, err := CleanName(requested)
	if err != nil {
		return Resolution{}, err
	}

	exists, err := store.Exists(ctx, name)
	if err != nil {
		return Resolution{}, err
	}

	contentType := ContentType(name)
	return Resolution{
		StoredName:  name,
		Exists:      exists,
		ContentType: contentType,
		Video:       contentType == ContentTypeVideo,
	}, nil
}
