package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/middleware"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/redis/go-redis/v9"
)

const (
	BackendRedis = "redis"
	BackendLocal = "local"
	BackendNone  = "none"
)

// PageCache stores rendered pages. Lookups never fail: backend errors count as misses.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	// PurgeIndex drops every cached index page held by this backend.
	PurgeIndex(ctx context.Context) error
}

// NewPageCache picks a backend. A redis backend without a client degrades to
// no caching.
func NewPageCache(backend string, rdb *redis.Client, ttl time.Duration) (PageCache, error) {
	switch backend {
	case BackendRedis, "":
		if rdb == nil {
			middleware.Logger.Warn("Page cache disabled: redis backend selected but Redis is unavailable")
			return NopPageCache{}, nil
		}
		return NewRedisPageCache(rdb, ttl), nil
	case BackendLocal:
		return NewLocalPageCache(ttl)
	case BackendNone:
		return NopPageCache{}, nil
	default:
		return nil, fmt.Errorf("unsupported page cache backend %q", backend)
	}
}

// NopPageCache caches nothing.
type NopPageCache struct{}

func (NopPageCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NopPageCache) Set(context.Context, string, []byte)        {}
func (NopPageCache) PurgeIndex(context.Context) error           { return nil }

// RedisPageCache shares pages between instances.
type RedisPageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPageCache(rdb *redis.Client, ttl time.Duration) *RedisPageCache {
	if ttl <= 0 {
		ttl = DefaultIndexPageTTL
	}
	return &RedisPageCache{rdb: rdb, ttl: ttl}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.PageCacheRequests.WithLabelValues("error").Inc()
			middleware.Logger.WarnContext(ctx, "Page cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return body, true
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte) {
	if err := c.rdb.Set(ctx, key, body, c.ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "Page cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *RedisPageCache) PurgeIndex(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, IndexPagePattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan index pages: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// LocalPageCache keeps pages in process memory, bounded by total body size.
type LocalPageCache struct {
	raw   *ristretto.Cache
	pages *gocache.Cache[[]byte]
	ttl   time.Duration
}

const localMaxCostBytes = 64 << 20

func NewLocalPageCache(ttl time.Duration) (*LocalPageCache, error) {
	if ttl <= 0 {
		ttl = DefaultIndexPageTTL
	}
	raw, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     localMaxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &LocalPageCache{
		raw:   raw,
		pages: gocache.New[[]byte](ristretto_store.NewRistretto(raw)),
		ttl:   ttl,
	}, nil
}

func (c *LocalPageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.pages.Get(ctx, key)
	if err != nil || body == nil {
		return nil, false
	}
	return body, true
}

func (c *LocalPageCache) Set(ctx context.Context, key string, body []byte) {
	err := c.pages.Set(ctx, key, body,
		store.WithExpiration(c.ttl),
		store.WithCost(int64(len(body))),
	)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Local page cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// PurgeIndex clears the whole store; it only ever holds index pages.
func (c *LocalPageCache) PurgeIndex(ctx context.Context) error {
	return c.pages.Clear(ctx)
}

// Wait blocks until buffered writes are applied.
func (c *LocalPageCache) Wait() {
	c.raw.Wait()
}
