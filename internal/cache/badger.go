package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerCache is a durable Cache backend for deployments that want the
// Shared Cache to survive a restart.
type BadgerCache struct {
	db *badger.DB
}

// BadgerCacheConfig configures a BadgerCache.
type BadgerCacheConfig struct {
	Dir string
}

// badgerLogger adapts zerolog to Badger's minimal logger interface.
type badgerLogger struct {
	logger zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.logger.Error().Msgf(format, args...)
}
func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.logger.Warn().Msgf(format, args...)
}
func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.logger.Info().Msgf(format, args...)
}
func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.logger.Debug().Msgf(format, args...)
}

// NewBadgerCache opens (or creates) a Badger store at cfg.Dir.
func NewBadgerCache(cfg BadgerCacheConfig, logger zerolog.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(badgerLogger{logger: logger.With().Str("component", "badger-cache").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BadgerCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Update preserves the remaining TTL of the existing entry, if any.
func (c *BadgerCache) Update(ctx context.Context, key string, value []byte) error {
	var remaining time.Duration
	persistent := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		if expiresAt := item.ExpiresAt(); expiresAt > 0 {
			remaining = time.Until(time.Unix(int64(expiresAt), 0))
		} else {
			persistent = true
		}
		return nil
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return err
	}
	if persistent {
		// The existing entry has no TTL; keep it that way.
		return c.Set(ctx, key, value, 0)
	}
	if remaining <= 0 {
		remaining = 15 * time.Minute
	}
	return c.Set(ctx, key, value, remaining)
}

func (c *BadgerCache) Delete(_ context.Context, key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (c *BadgerCache) Keys(_ context.Context, pattern string) ([]string, error) {
	var out []string
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			if matchPattern(pattern, key) {
				out = append(out, key)
			}
		}
		return nil
	})
	return out, err
}

// WaitUntilReady blocks until Badger's value log GC/replay is past startup.
// Badger's Open already blocks until usable, so this is a no-op guard kept
// for interface symmetry with networked backends that connect lazily.
func (c *BadgerCache) WaitUntilReady(_ context.Context) error { return nil }

func (c *BadgerCache) Close() error {
	return c.db.Close()
}
