package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimiter interface {
	Allow(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error)
}

// RedisRateLimiter counts requests in fixed windows shared by every
// instance.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

type LocalRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{windows: make(map[string]*rateWindow), now: time.Now}
}

func (r *LocalRateLimiter) Allow(_ context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		r.windows[key] = w
	}
	w.count++

	return w.count <= limit, nil
}
