package redisrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	redisx "github.com/kirinyoku/tix-factory/internal/redis"
)

// slidingWindow records one hit in a sorted set scored by time and returns
// {allowed, hits in window, retry after ms}. A rejected hit still counts, so
// a caller hammering the limit stays limited.
var slidingWindow = redis.NewScript(`
local now, window, limit = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)

local hits = redis.call('ZCARD', KEYS[1])
if hits <= limit then
  return {1, hits, 0}
end

local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local wait = window - (now - tonumber(oldest[2]))
if wait < 0 then wait = 0 end
return {0, hits, wait}
`)

// SlidingWindowLimiter admits at most limit calls per window for each id in
// its scope. It is shared by every instance pointing at the same Redis.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration

	now    func() time.Time
	member func() string
}

func NewSlidingWindowLimiter(rdb *redis.Client, scope string, limit int, window time.Duration) *SlidingWindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		now:    time.Now,
		member: uuid.NewString,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, id string) (bool, int64, time.Duration, error) {
	const op = "redisrepo.SlidingWindowLimiter.Allow"

	vals, err := slidingWindow.Run(
		ctx,
		l.rdb,
		[]string{redisx.KeyRateLimit(l.scope, id)},
		l.now().UnixMilli(), l.window.Milliseconds(), l.limit, l.member(),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(vals) != 3 {
		return false, 0, 0, fmt.Errorf("%s: unexpected reply %v", op, vals)
	}

	return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond, nil
}
