// Package redisx opens the Redis client and owns the key layout and the
// change-notification channel shared by every instance of the service.
package redisx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config addresses a single Redis node. Addr is either host:port or a
// redis:// URL; in the latter case Password and DB are taken from the URL.
type Config struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	PingTimeout time.Duration
}

func (c Config) options() (*redis.Options, error) {
	if strings.HasPrefix(c.Addr, "redis://") || strings.HasPrefix(c.Addr, "rediss://") {
		opts, err := redis.ParseURL(c.Addr)
		if err != nil {
			return nil, err
		}
		if c.PoolSize > 0 {
			opts.PoolSize = c.PoolSize
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	}, nil
}

// New connects and pings. The client is closed again if the ping fails.
func New(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "redisx.New"

	opts, err := cfg.options()
	if err != nil {
		return nil, fmt.Errorf("%s: parse url: %w", op, err)
	}

	client := redis.NewClient(opts)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctxPing, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: ping %s: %w", op, opts.Addr, err)
	}

	return client, nil
}
