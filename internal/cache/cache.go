// Package cache implements a key/value store with TTL, singleflight-guarded
// population, and pattern listing, used by the Metadata Service and SeaDex
// Provider to memoize upstream responses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache is the contract every backend (in-memory, Badger-backed) satisfies.
type Cache interface {
	// Get returns the raw bytes stored for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Update replaces the value for an existing key while preserving its
	// current TTL. If the key doesn't exist, it behaves like Set with the
	// backend's default TTL.
	Update(ctx context.Context, key string, value []byte) error
	// Delete removes key, if present.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys matching a glob pattern (path.Match syntax,
	// except that "*" also matches "/", so "metadata/*" lists every key
	// under "metadata/"). An empty pattern matches every key.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// WaitUntilReady blocks until the backend can serve requests (e.g. a
	// Badger store finishing its value-log replay).
	WaitUntilReady(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// SingleflightCache wraps a Cache with at-most-once concurrent population
// per key: concurrent callers building the same key block on one shared
// call instead of each hitting the upstream.
type SingleflightCache struct {
	backend    Cache
	group      singleflight.Group
	defaultTTL time.Duration
}

// NewSingleflightCache wraps backend with singleflight-guarded GetOrSet.
func NewSingleflightCache(backend Cache, defaultTTL time.Duration) *SingleflightCache {
	return &SingleflightCache{backend: backend, defaultTTL: defaultTTL}
}

// Cache exposes the wrapped backend for plain get/set/delete/keys calls.
func (c *SingleflightCache) Cache() Cache { return c.backend }

// GetOrSetJSON fetches key, JSON-decoding it into a new T on a hit; on a
// miss it calls build exactly once across any concurrently-racing callers
// for the same key, stores the JSON-encoded result with ttl, and returns it
// to every waiter.
func GetOrSetJSON[T any](ctx context.Context, c *SingleflightCache, key string, ttl time.Duration, build func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if raw, err := c.backend.Get(ctx, key); err == nil {
		var v T
		if decErr := json.Unmarshal(raw, &v); decErr == nil {
			return v, nil
		}
		// Corrupt cache entry: fall through and rebuild.
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check: another goroutine may have populated the cache while we
		// queued for the singleflight slot.
		if raw, err := c.backend.Get(ctx, key); err == nil {
			var v T
			if decErr := json.Unmarshal(raw, &v); decErr == nil {
				return v, nil
			}
		}

		v, buildErr := build(ctx)
		if buildErr != nil {
			return zero, buildErr
		}

		effectiveTTL := ttl
		if effectiveTTL <= 0 {
			effectiveTTL = c.defaultTTL
		}
		if raw, encErr := json.Marshal(v); encErr == nil {
			_ = c.backend.Set(ctx, key, raw, effectiveTTL)
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

// BuildKey joins parts into a single cache key using "/" as separator,
// mirroring the key conventions used across the package (e.g.
// "metadata/movie/tmdb/603").
func BuildKey(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out = out + "/" + p
	}
	return out
}

// matchPattern reports whether key matches a glob pattern in path.Match
// syntax, with "/" treated as an ordinary character so that "*" spans key
// segments. An empty pattern matches everything.
func matchPattern(pattern, key string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(strings.ReplaceAll(pattern, "/", "\x00"), strings.ReplaceAll(key, "/", "\x00"))
	return err == nil && ok
}
