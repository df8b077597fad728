package memoryStore

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"foodgram/media"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("SameContentSameKey", func(t *testing.T) {
		t.Parallel()

		store := New()
		content := []byte("identical content")

		key1, err := store.StoreImage(ctx, content, "png")
		if err != nil {
			t.Fatalf("Failed to store first image: %v", err)
		}
		key2, err := store.StoreImage(ctx, content, "png")
		if err != nil {
			t.Fatalf("Failed to store second image: %v", err)
		}

		if key1 != key2 {
			t.Errorf("Same content should produce same key. Got %s and %s", key1, key2)
		}
		if count := store.Count(); count != 1 {
			t.Errorf("Expected 1 image, got %d", count)
		}
	})

	t.Run("GetImageReturnsCopy", func(t *testing.T) {
		t.Parallel()

		store := New()
		content := []byte("image bytes")
		key, err := store.StoreImage(ctx, content, "jpg")
		if err != nil {
			t.Fatalf("Failed to store image: %v", err)
		}

		retrieved1, err := store.GetImage(ctx, key)
		if err != nil {
			t.Fatalf("Failed to get image: %v", err)
		}
		retrieved1[0] = 'X'

		retrieved2, err := store.GetImage(ctx, key)
		if err != nil {
			t.Fatalf("Failed to get image second time: %v", err)
		}
		if !bytes.Equal(retrieved2, content) {
			t.Error("Modifications to retrieved content affected stored content")
		}
	})

	t.Run("DeleteMissingImage", func(t *testing.T) {
		t.Parallel()

		store := New()
		err := store.DeleteImage(ctx, media.ImageKey([]byte("nothing"), "png"))
		if !errors.Is(err, media.ErrImageNotFound) {
			t.Errorf("Expected ErrImageNotFound, got: %v", err)
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		t.Parallel()

		store := New()
		numOps := 100
		keys := make([]string, numOps)

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := range numOps {
			go func(idx int) {
				defer wg.Done()
				key, err := store.StoreImage(ctx, []byte{byte(idx), byte(idx >> 8)}, "png")
				if err != nil {
					t.Errorf("Failed to store image %d: %v", idx, err)
				}
				keys[idx] = key
			}(i)
		}
		wg.Wait()

		wg.Add(numOps)
		for i := range numOps {
			go func(idx int) {
				defer wg.Done()
				if err := store.DeleteImage(ctx, keys[idx]); err != nil {
					t.Errorf("Failed to delete image %d: %v", idx, err)
				}
			}(i)
		}
		wg.Wait()

		if count := store.Count(); count != 0 {
			t.Errorf("Expected 0 images after concurrent deletes, got %d", count)
		}
	})
}
