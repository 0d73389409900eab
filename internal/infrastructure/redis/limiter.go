// Package redisinfra holds the Redis-backed throttling used by the auth flows.
package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vehicle-market-api/internal/domain"
)

// ErrUnavailable wraps Redis failures so callers can decide to fail open.
var ErrUnavailable = errors.New("redis unavailable")

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Limiter is a fixed-window counter: at most Max calls per Window for a key.
type Limiter struct {
	rdb    redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
}

func NewLimiter(rdb redis.UniversalClient, prefix string, max int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, prefix: prefix, max: int64(max), window: window}
}

// Allow counts one call for key. It returns domain.ErrTooManyRequests once the
// window budget is spent and ErrUnavailable when Redis cannot be reached.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	k := l.prefix + ":" + key
	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if count > l.max {
		return fmt.Errorf("%s limit of %d per %s reached: %w", l.prefix, l.max, l.window, domain.ErrTooManyRequests)
	}
	return nil
}
