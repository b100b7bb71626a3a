package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/zkloci/internal/model"
)

func TestIntentKeyNormalizes(t *testing.T) {
	a := IntentKey("How many donors  in L1?")
	b := IntentKey("  how many DONORS in l1? ")
	c := IntentKey("how many donors in L2?")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, KeyPrefix+"intent:")
}

// exerciseCache runs the behavior every backend shares
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := IntentKey("q")

	_, found := c.Get(ctx, key)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, []byte(`{"useCase":"blood_donation"}`), time.Minute))
	val, found := c.Get(ctx, key)
	require.True(t, found)
	assert.Equal(t, `{"useCase":"blood_donation"}`, string(val))

	require.NoError(t, c.Delete(ctx, key))
	_, found = c.Get(ctx, key)
	assert.False(t, found)

	// Deleting a missing key is fine
	require.NoError(t, c.Delete(ctx, key))

	require.NoError(t, c.Set(ctx, key, []byte("x"), 0))
	require.NoError(t, c.Clear(ctx))
	_, found = c.Get(ctx, key)
	assert.False(t, found)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(time.Minute, time.Minute))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestDiskCache(t *testing.T) {
	exerciseCache(t, NewDiskCache(t.TempDir(), time.Minute))
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), -time.Second))
	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}

func TestDiskCacheLayout(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)
	ctx := context.Background()

	key := IntentKey("how many proofs")
	require.NoError(t, c.Set(ctx, key, []byte("v"), 0))

	hash := strings.TrimPrefix(key, KeyPrefix+"intent:")
	_, err := os.Stat(filepath.Join(dir, "intent", hash+".cache"))
	require.NoError(t, err)

	// Unsafe characters never escape the cache dir
	require.NoError(t, c.Set(ctx, "../../etc/passwd", []byte("x"), 0))
	_, err = os.Stat(filepath.Join(dir, "______etc_passwd.cache"))
	require.NoError(t, err)
}

func TestDiskCacheClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)
	ctx := context.Background()

	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))
	require.NoError(t, c.Set(ctx, IntentKey("q"), []byte("v"), 0))

	require.NoError(t, c.Clear(ctx))

	_, err := os.Stat(other)
	assert.NoError(t, err)
	_, found := c.Get(ctx, IntentKey("q"))
	assert.False(t, found)

	// Clearing a cache that was never written is fine
	assert.NoError(t, NewDiskCache(filepath.Join(dir, "missing"), time.Minute).Clear(ctx))
}

func TestDiskCacheRejectsForeignEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)
	ctx := context.Background()

	// "a:b" and "a_b" never share a file, but a hand-edited entry for
	// another key must still be ignored
	require.NoError(t, c.Set(ctx, "a_b", []byte("v"), 0))
	raw, err := os.ReadFile(filepath.Join(dir, "a_b.cache"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b.cache"), raw, 0o644))

	_, found := c.Get(ctx, "a:b")
	assert.False(t, found)
}

func TestLayeredCache(t *testing.T) {
	exerciseCache(t, NewLayeredCache(time.Minute, t.TempDir(), time.Minute))
}

func TestLayeredCachePromotes(t *testing.T) {
	ctx := context.Background()
	fast := NewMemoryCache(time.Minute, time.Minute)
	slow := NewDiskCache(t.TempDir(), time.Minute)
	c := NewLayered(fast, slow)

	require.NoError(t, slow.Set(ctx, "k", []byte("v"), 0))
	_, found := fast.Get(ctx, "k")
	require.False(t, found)

	val, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "v", string(val))

	val, found = fast.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "v", string(val))
}

func TestRedisCache(t *testing.T) {
	s := miniredis.RunT(t)
	client, err := OpenRedis(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)

	c := NewRedisCache(client, time.Minute)
	defer func() { _ = c.Close() }()

	exerciseCache(t, c)
}

func TestRedisCacheTTLAndScopedClear(t *testing.T) {
	s := miniredis.RunT(t)
	client, err := OpenRedis(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	key := IntentKey("ttl")
	require.NoError(t, c.Set(ctx, key, []byte("v"), 0))
	assert.Equal(t, time.Minute, s.TTL(key))

	require.NoError(t, s.Set("unrelated", "keep"))
	for i := 0; i < 150; i++ {
		require.NoError(t, c.Set(ctx, IntentKey(fmt.Sprintf("question %d", i)), []byte("v"), 0))
	}
	require.NoError(t, c.Clear(ctx))

	assert.True(t, s.Exists("unrelated"))
	_, found := c.Get(ctx, key)
	assert.False(t, found)
}

func TestOpenRedisErrors(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-url")
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = OpenRedis(ctx, "redis://127.0.0.1:1")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := New(ctx, model.CacheConfig{Enabled: false})
	require.NoError(t, err)
	closeFn()
	assert.Nil(t, c)

	c, _, err = New(ctx, model.CacheConfig{Enabled: true, Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, _, err = New(ctx, model.CacheConfig{Enabled: true, Backend: "layered", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LayeredCache{}, c)

	s := miniredis.RunT(t)
	c, closeFn, err = New(ctx, model.CacheConfig{Enabled: true, Backend: "redis", RedisURL: "redis://" + s.Addr()})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &RedisCache{}, c)

	_, _, err = New(ctx, model.CacheConfig{Enabled: true, Backend: "memcached"})
	assert.Error(t, err)
}
