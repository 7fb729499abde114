package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studyq-platform/studyq/internal/metrics"
)

const DefaultTTL = 24 * time.Hour

// ResultCache memoizes retrieval results. It is advisory: store failures turn
// reads into misses and writes into no-ops, and are only logged.
type ResultCache struct {
	store Store
	ttls  map[string]time.Duration
}

// New creates a ResultCache. ttls maps an operation kind to its expiry; kinds
// not listed use DefaultTTL. A nil store disables caching.
func New(store Store, ttls map[string]time.Duration) *ResultCache {
	return &ResultCache{store: store, ttls: ttls}
}

// TTL returns the expiry used for entries of kind.
func (c *ResultCache) TTL(kind string) time.Duration {
	if ttl, ok := c.ttls[kind]; ok && ttl > 0 {
		return ttl
	}
	return DefaultTTL
}

func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	val, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return val, true
	case errors.Is(err, ErrMiss):
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		slog.Warn("cache unavailable, treating as miss", "key", key, "error", err)
	}
	return nil, false
}

func (c *ResultCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		slog.Warn("cache unavailable, skipping store", "key", key, "error", err)
	}
}

func (c *ResultCache) Invalidate(ctx context.Context, key string) {
	if c.store == nil {
		return
	}
	if err := c.store.Del(ctx, key); err != nil {
		slog.Warn("cache unavailable, skipping invalidation", "key", key, "error", err)
	}
}
