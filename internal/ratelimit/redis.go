// Package ratelimit implements a fixed-window request limiter on redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dtroode/adminauth-server/internal/model"
)

const keyPrefix = "adminauth:rl:"

// RedisLimiter allows up to limit hits per key in each window.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

var _ model.Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter returns a limiter. A non-positive limit allows everything.
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

// Allow counts a hit for key. When the limit is exceeded it reports how long
// until the window resets.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}

	redisKey := keyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, 0, fmt.Errorf("failed to count request: %w", err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return true, 0, fmt.Errorf("failed to start window: %w", err)
		}
	}

	if count <= l.limit {
		return true, 0, nil
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return false, l.window, nil
	}
	if ttl < 0 {
		// The window was never armed; arm it now so the key cannot stick.
		_ = l.client.PExpire(ctx, redisKey, l.window).Err()
		ttl = l.window
	}
	return false, ttl, nil
}

// NewClient connects to redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
