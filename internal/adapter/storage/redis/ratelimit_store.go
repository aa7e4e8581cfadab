package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements ports.RateLimitStore using a Redis fixed-window
// counter. Keys are bucketed by window so counts reset at window boundaries.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// Increment bumps the counter for key in the current window and returns the
// new count. The first hit in a window sets the key's expiry so stale
// windows clean themselves up.
func (s *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	windowID := time.Now().Unix() / int64(window.Seconds())
	bucketKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, bucketKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis rate limit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, bucketKey, window).Err(); err != nil {
			return 0, fmt.Errorf("redis rate limit expire: %w", err)
		}
	}
	return count, nil
}
