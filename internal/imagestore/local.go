package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images under a root directory on disk.
type LocalStore struct {
	root string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Store writes the image to <root>/<eventID>/<random><ext>.
func (s *LocalStore) Store(_ context.Context, eventID, filename, contentType string, data []byte) (string, error) {
	ref := newReference(eventID, filename, contentType)
	full, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create event directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return ref, nil
}

// Retrieve reads the image behind ref.
func (s *LocalStore) Retrieve(_ context.Context, ref string) ([]byte, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// Delete removes the image behind ref if it exists.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// resolve maps a reference to a path, refusing anything outside root.
func (s *LocalStore) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty reference: %w", ErrNotFound)
	}
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("reference %q escapes uploads directory: %w", ref, ErrNotFound)
	}
	return full, nil
}
