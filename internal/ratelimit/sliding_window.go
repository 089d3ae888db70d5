// Package ratelimit throttles login and job submission with a redis sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New allows limit requests per identifier within each sliding window.
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow records a request for scope/identifier and reports whether it is within the limit.
// A nil limiter or a non-positive limit allows everything.
func (l *Limiter) Allow(ctx context.Context, scope, identifier string) (bool, int, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, -1, nil
	}
	key := fmt.Sprintf("ratelimit:%s:%s", scope, identifier)

	now := l.now()
	windowStart := now.Add(-l.window).UnixMicro()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, 0, fmt.Errorf("rate limit check: %w", err)
	}

	count := int(countCmd.Val())
	if count >= l.limit {
		return false, 0, nil
	}

	err := l.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMicro()),
		Member: strconv.FormatInt(now.UnixMicro(), 10) + "-" + uuid.NewString(),
	}).Err()
	if err != nil {
		return false, 0, fmt.Errorf("add rate limit entry: %w", err)
	}
	// expiry failure only delays cleanup
	_ = l.client.Expire(ctx, key, l.window+time.Second).Err()

	return true, l.limit - count - 1, nil
}

// Reset clears the window for scope/identifier.
func (l *Limiter) Reset(ctx context.Context, scope, identifier string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if err := l.client.Del(ctx, fmt.Sprintf("ratelimit:%s:%s", scope, identifier)).Err(); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}
