package memoryStore

import (
	"context"
	"sync"

	"foodgram/media"
)

// MemoryStore implements the media.Store interface using in-memory storage.
// Used only for testing.
type MemoryStore struct {
	mu     sync.RWMutex
	images map[string][]byte
}

// New creates a new memory-based image store
func New() *MemoryStore {
	return &MemoryStore{
		images: make(map[string][]byte),
	}
}

func (s *MemoryStore) StoreImage(_ context.Context, content []byte, ext string) (string, error) {
	key := media.ImageKey(content, ext)

	stored := make([]byte, len(content))
	copy(stored, content)

	s.mu.Lock()
	s.images[key] = stored
	s.mu.Unlock()

	return key, nil
}

func (s *MemoryStore) GetImage(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	content, exists := s.images[key]
	s.mu.RUnlock()

	if !exists {
		return nil, media.ErrImageNotFound
	}

	// Return a copy to prevent external modifications
	result := make([]byte, len(content))
	copy(result, content)

	return result, nil
}

func (s *MemoryStore) DeleteImage(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.images[key]; !exists {
		return media.ErrImageNotFound
	}
	delete(s.images, key)

	return nil
}

// Has reports whether key is stored (useful for testing)
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.images[key]

	return exists
}

// Count returns the number of images stored (useful for testing)
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.images)
}
