package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/zkloci/internal/model"
)

// Backend names accepted by New
const (
	BackendMemory  = "memory"
	BackendDisk    = "disk"
	BackendLayered = "layered"
	BackendRedis   = "redis"
)

// New builds the cache selected by cfg. It returns a nil cache when caching
// is disabled. The returned func releases backend connections.
func New(ctx context.Context, cfg model.CacheConfig) (Cache, func(), error) {
	noop := func() {}
	if !cfg.Enabled {
		return nil, noop, nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMemory, "":
		return NewMemoryCache(ttl, 10*time.Minute), noop, nil
	case BackendDisk:
		return NewDiskCache(cfg.Dir, ttl), noop, nil
	case BackendLayered:
		return NewLayeredCache(ttl, cfg.Dir, ttl), noop, nil
	case BackendRedis:
		client, err := OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		rc := NewRedisCache(client, ttl)
		return rc, func() { _ = rc.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
