// Package redisrepo holds the Redis-backed read cache, idempotency records
// and rate limiter.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	redisx "github.com/kirinyoku/tix-factory/internal/redis"
)

// Cache is a JSON read-through cache. A nil *Cache is valid and always calls
// the loader.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

// lookup decodes the value at key into out. It reports false on a miss.
func (c *Cache) lookup(ctx context.Context, key string, out any) (bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}

	if err := json.Unmarshal([]byte(s), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) store(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, string(b), ttl).Err()
}

// Invalidate drops keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// GetOrSetJSON returns the cached value of key or loads, stores and returns
// it. Concurrent misses on the same key share one load. Cache errors fall
// through to the loader; a failed store is ignored.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	if c == nil {
		return loader(ctx)
	}

	var hit T
	if ok, err := c.lookup(ctx, key, &hit); err == nil && ok {
		return hit, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		var again T
		if ok, err := c.lookup(ctx, key, &again); err == nil && ok {
			return again, nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		_ = c.store(ctx, key, loaded, ttl)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s: unexpected %T", key, v)
	}

	return out, nil
}

// InvalidateShow drops the cached copies of a show and of its deployment's
// show list.
func (c *Cache) InvalidateShow(ctx context.Context, deployment, showKey string) error {
	return c.Invalidate(
		ctx,
		redisx.KeyDeploymentShow(deployment, showKey),
		redisx.KeyDeploymentShows(deployment),
	)
}
