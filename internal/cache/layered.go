package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a fast layer to a slow one and copies slow
// hits into the fast layer. Writes go to both.
type LayeredCache struct {
	fast Cache
	slow Cache
}

// NewLayeredCache puts a memory cache in front of a disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayered(NewMemoryCache(memoryTTL, 10*time.Minute), NewDiskCache(diskDir, diskTTL))
}

// NewLayered stacks any two caches, for example memory over redis
func NewLayered(fast, slow Cache) *LayeredCache {
	return &LayeredCache{fast: fast, slow: slow}
}

// Get checks the fast layer first, then the slow one
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, found := c.fast.Get(ctx, key); found {
		return val, true
	}

	val, found := c.slow.Get(ctx, key)
	if !found {
		return nil, false
	}
	_ = c.fast.Set(ctx, key, val, 0)
	return val, true
}

// Set writes the slow layer first so a failed write never leaves a
// value only in memory
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.slow.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.fast.Set(ctx, key, value, ttl)
}

// Delete removes the key from both layers
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.fast.Delete(ctx, key)
	return c.slow.Delete(ctx, key)
}

// Clear empties both layers
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.fast.Clear(ctx)
	return c.slow.Clear(ctx)
}
