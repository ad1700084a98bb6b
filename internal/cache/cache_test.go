package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(DefaultMemoryCacheConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(DefaultMemoryCacheConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), -time.Second))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache_UpdatePreservesTTL(t *testing.T) {
	c := NewMemoryCache(DefaultMemoryCacheConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))
	c.mu.RLock()
	originalExpiry := c.items["a"].expiresAt
	c.mu.RUnlock()

	require.NoError(t, c.Update(ctx, "a", []byte("2")))

	c.mu.RLock()
	newExpiry := c.items["a"].expiresAt
	c.mu.RUnlock()

	assert.Equal(t, originalExpiry, newExpiry)

	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestMemoryCache_KeysPattern(t *testing.T) {
	c := NewMemoryCache(DefaultMemoryCacheConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "metadata/movie/1", []byte("x"), time.Minute))
	require.NoError(t, c.Set(ctx, "metadata/series/2", []byte("y"), time.Minute))
	require.NoError(t, c.Set(ctx, "seadex/3", []byte("z"), time.Minute))

	keys, err := c.Keys(ctx, "metadata/*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	all, err := c.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSingleflightCache_GetOrSetJSON_BuildsOnce(t *testing.T) {
	backend := NewMemoryCache(DefaultMemoryCacheConfig())
	defer backend.Close()
	sc := NewSingleflightCache(backend, time.Minute)

	var builds int64
	build := func(ctx context.Context) (string, error) {
		atomic.AddInt64(&builds, 1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	results := make(chan string, 10)
	for i := 0; i < 10; i++ {
		go func() {
			v, err := GetOrSetJSON(context.Background(), sc, "k", time.Minute, build)
			require.NoError(t, err)
			results <- v
		}()
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, "value", <-results)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&builds))
}

func TestSingleflightCache_CacheHitSkipsBuild(t *testing.T) {
	backend := NewMemoryCache(DefaultMemoryCacheConfig())
	defer backend.Close()
	sc := NewSingleflightCache(backend, time.Minute)
	ctx := context.Background()

	var builds int64
	build := func(ctx context.Context) (int, error) {
		atomic.AddInt64(&builds, 1)
		return 42, nil
	}

	v1, err := GetOrSetJSON(ctx, sc, "n", time.Minute, build)
	require.NoError(t, err)
	assert.Equal(t, 42, v1)

	v2, err := GetOrSetJSON(ctx, sc, "n", time.Minute, build)
	require.NoError(t, err)
	assert.Equal(t, 42, v2)

	assert.Equal(t, int64(1), atomic.LoadInt64(&builds))
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "a/b/c", BuildKey("a", "b", "c"))
}
