package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"
)

// ErrImageNotFound is returned by every Store when a key has no content
var ErrImageNotFound = errors.New("image not found")

// ErrInvalidKey is returned for keys that would escape the storage root
var ErrInvalidKey = errors.New("invalid image key")

// Store interface defines the methods that any image backend must provide
type Store interface {
	StoreImage(ctx context.Context, content []byte, ext string) (string, error)
	GetImage(ctx context.Context, key string) ([]byte, error)
	DeleteImage(ctx context.Context, key string) error
}

const keyPrefix = "recipes/images"

// ImageKey derives the content-addressed storage key for an image, so equal
// uploads share one blob.
func ImageKey(content []byte, ext string) string {
	hash := sha256.Sum256(content)

	return path.Join(keyPrefix, hex.EncodeToString(hash[:])+"."+strings.TrimPrefix(ext, "."))
}

// ValidateKey rejects keys outside the image prefix or containing traversal
// segments.
func ValidateKey(key string) error {
	if key == "" || path.Clean(key) != key || !strings.HasPrefix(key, keyPrefix+"/") {
		return ErrInvalidKey
	}

	return nil
}
