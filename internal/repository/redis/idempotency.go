package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockValue = "LOCK"
	resPrefix = "RES:"
)

// IdempotencyStore remembers the response of a keyed request. A key is first
// locked while the request runs and then replaced by its result.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	const op = "redisrepo.IdempotencyStore.AcquireLock"

	ok, err := s.rdb.SetNX(ctx, key, lockValue, lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// SaveResult replaces the lock on key by the response payload.
func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	if err := s.rdb.Set(ctx, key, resPrefix+jsonPayload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisrepo.IdempotencyStore.SaveResult: %w", err)
	}
	return nil
}

// GetResult returns the stored payload. A key that is absent or still
// locked reports false.
func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("redisrepo.IdempotencyStore.GetResult: %w", err)
	}

	payload, ok := strings.CutPrefix(v, resPrefix)
	if !ok {
		return "", false, nil
	}
	return payload, true, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
