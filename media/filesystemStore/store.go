package filesystemStore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"foodgram/media"
)

// FilesystemStore implements the media.Store interface using simple
// filesystem storage
type FilesystemStore struct {
	baseDir string
}

// New creates a new filesystem-based image store
func New(baseDir string) (*FilesystemStore, error) {
	//nolint:gosec,mnd // Directory permissions 0755 are intentional
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FilesystemStore{baseDir: baseDir}, nil
}

// StoreImage writes the image under its content hash and returns the key
func (s *FilesystemStore) StoreImage(
	_ context.Context,
	content []byte,
	ext string,
) (string, error) {
	key := media.ImageKey(content, ext)
	imagePath := s.imagePath(key)

	//nolint:gosec,mnd // Directory permissions 0755 are intentional
	if err := os.MkdirAll(filepath.Dir(imagePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	//nolint:mnd // filemode constant
	if err := os.WriteFile(imagePath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return key, nil
}

// GetImage retrieves an image by key
func (s *FilesystemStore) GetImage(_ context.Context, key string) ([]byte, error) {
	if err := media.ValidateKey(key); err != nil {
		return nil, err
	}

	//nolint:gosec // G304: key is validated against traversal above
	content, err := os.ReadFile(s.imagePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, media.ErrImageNotFound
		}

		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return content, nil
}

// DeleteImage deletes an image by key
func (s *FilesystemStore) DeleteImage(_ context.Context, key string) error {
	if err := media.ValidateKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.imagePath(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return media.ErrImageNotFound
		}

		return fmt.Errorf("failed to remove image: %w", err)
	}

	return nil
}

func (s *FilesystemStore) imagePath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// StorageDir resolves a configured storage directory against the working
// directory when it is relative
func StorageDir(dir string) string {
	if !filepath.IsAbs(dir) {
		wd, _ := os.Getwd()
		return filepath.Join(wd, dir)
	}

	return dir
}
