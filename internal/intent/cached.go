package intent

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/cache"
	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
)

// CachedExtractor remembers successful extractions per normalized question
type CachedExtractor struct {
	inner Extractor
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedExtractor wraps inner. A nil cache disables caching.
func NewCachedExtractor(inner Extractor, c cache.Cache, ttl time.Duration) Extractor {
	if c == nil {
		return inner
	}
	return &CachedExtractor{inner: inner, cache: c, ttl: ttl}
}

// Extract serves from cache when possible. Failures are not cached.
func (e *CachedExtractor) Extract(ctx context.Context, question string) (model.Intent, error) {
	key := cache.IntentKey(question)

	if raw, ok := e.cache.Get(ctx, key); ok {
		var cached model.Intent
		if err := json.Unmarshal(raw, &cached); err == nil {
			log.Debug(ctx, "intent cache hit")
			return cached, nil
		}
		_ = e.cache.Delete(ctx, key)
	}

	out, err := e.inner.Extract(ctx, question)
	if err != nil {
		return out, err
	}

	if raw, err := json.Marshal(out); err == nil {
		if err := e.cache.Set(ctx, key, raw, e.ttl); err != nil {
			log.Warn(ctx, "intent cache write failed", zap.Error(err))
		}
	}
	return out, nil
}
