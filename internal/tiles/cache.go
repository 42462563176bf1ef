package tiles

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/ironsheep/truck-parking-mcp/internal/imaging"
)

// Cache stores encoded tile payloads by key. Implementations must be safe for
// concurrent use. A failing backend behaves like a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NopCache) Set(context.Context, string, []byte)        {}

// MemoryCache keeps encoded payloads in process memory for its lifetime.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]byte),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte) {
	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LoadImage reads an image file through cache, keyed by its exact path.
// Different paths to the same file are cached separately.
func LoadImage(ctx context.Context, cache Cache, path string) (image.Image, error) {
	key := "file:" + path

	data, ok := cache.Get(ctx, key)
	if !ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	if !ok {
		cache.Set(ctx, key, data)
	}
	return img, nil
}
