package redisrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisx "github.com/kirinyoku/tix-factory/internal/redis"
)

type summary struct {
	Name string `json:"name"`
	Sold int    `json:"sold"`
}

func TestGetOrSetJSONMissLoadsAndStores(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)
	ctx := context.Background()
	key := redisx.KeyDeploymentShow("gala.factory", "gala")

	mock.ExpectGet(key).RedisNil()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, `{"name":"gala","sold":2}`, time.Minute).SetVal("OK")

	calls := 0
	v, err := GetOrSetJSON(ctx, c, key, time.Minute, func(ctx context.Context) (summary, error) {
		calls++
		return summary{Name: "gala", Sold: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, summary{Name: "gala", Sold: 2}, v)
	assert.Equal(t, 1, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSONHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)
	key := redisx.KeyDeploymentShow("gala.factory", "gala")

	mock.ExpectGet(key).SetVal(`{"name":"gala","sold":7}`)

	v, err := GetOrSetJSON(context.Background(), c, key, time.Minute, func(ctx context.Context) (summary, error) {
		t.Fatal("loader must not run on a hit")
		return summary{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v.Sold)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSONLoaderError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)
	key := redisx.KeyDeploymentShows("gala.factory")

	mock.ExpectGet(key).RedisNil()
	mock.ExpectGet(key).RedisNil()

	boom := errors.New("boom")
	_, err := GetOrSetJSON(context.Background(), c, key, time.Minute, func(ctx context.Context) ([]summary, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *Cache

	v, err := GetOrSetJSON(context.Background(), c, "k", time.Minute, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.NoError(t, c.InvalidateShow(context.Background(), "gala.factory", "gala"))
}

func TestInvalidateShow(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectDel(
		redisx.KeyDeploymentShow("gala.factory", "gala"),
		redisx.KeyDeploymentShows("gala.factory"),
	).SetVal(2)

	require.NoError(t, c.InvalidateShow(context.Background(), "gala.factory", "gala"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewIdempotencyStore(rdb, time.Hour)
	ctx := context.Background()
	key := redisx.KeyIdemPurchase("gala.factory", "alice", "k1")

	mock.ExpectSetNX(key, "LOCK", time.Minute).SetVal(true)
	ok, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectGet(key).SetVal("LOCK")
	_, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectSet(key, `RES:{"ok":true}`, time.Hour).SetVal("OK")
	require.NoError(t, s.SaveResult(ctx, key, `{"ok":true}`))

	mock.ExpectGet(key).SetVal(`RES:{"ok":true}`)
	res, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"ok":true}`, res)

	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, s.Release(ctx, key))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlidingWindowLimiter(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewSlidingWindowLimiter(rdb, "purchases", 10, time.Minute)
	now := time.UnixMilli(1_700_000_000_000)
	l.now = func() time.Time { return now }
	l.member = func() string { return "m1" }

	key := []string{redisx.KeyRateLimit("purchases", "alice")}
	args := []any{now.UnixMilli(), time.Minute.Milliseconds(), 10, "m1"}

	mock.ExpectEvalSha(slidingWindow.Hash(), key, args...).SetVal([]any{int64(1), int64(3), int64(0)})
	ok, hits, retry, err := l.Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), hits)
	assert.Zero(t, retry)

	mock.ExpectEvalSha(slidingWindow.Hash(), key, args...).SetVal([]any{int64(0), int64(11), int64(1500)})
	ok, hits, retry, err = l.Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(11), hits)
	assert.Equal(t, 1500*time.Millisecond, retry)

	mock.ExpectEvalSha(slidingWindow.Hash(), key, args...).SetErr(errors.New("down"))
	_, _, _, err = l.Allow(context.Background(), "alice")
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
