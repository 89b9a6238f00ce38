// Package imagestore keeps uploaded bill images, one directory or prefix per event.
package imagestore

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned (wrapped) when a reference points at nothing.
var ErrNotFound = errors.New("image not found")

// Store persists image bytes and hands back an opaque reference.
type Store interface {
	// Store saves the image and returns its reference.
	Store(ctx context.Context, eventID, filename, contentType string, data []byte) (string, error)

	// Retrieve returns the bytes behind a reference.
	Retrieve(ctx context.Context, ref string) ([]byte, error)

	// Delete removes the image. Deleting a missing image is not an error.
	Delete(ctx context.Context, ref string) error
}

// newReference builds "<eventID>/<uuid><ext>". The random name means a new
// upload never overwrites the previous image before it is deleted.
func newReference(eventID, filename, contentType string) string {
	return path.Join(eventID, uuid.New().String()+extension(filename, contentType))
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ""
	}
}

// ContentTypeForRef guesses the MIME type from a reference's extension.
func ContentTypeForRef(ref string) string {
	switch strings.ToLower(path.Ext(ref)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
