// Package cache stores small byte payloads, such as extracted intents,
// keyed by a normalized question.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// KeyPrefix namespaces every key this module writes
const KeyPrefix = "zkloci:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// IntentKey derives the cache key for a question. Case and surrounding or
// repeated whitespace do not change the key.
func IntentKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return KeyPrefix + "intent:" + hex.EncodeToString(hash[:])
}
