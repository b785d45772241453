package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/motorly/backend/repository"
)

type throttleRepository struct {
	client *redislib.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewLoginThrottle creates a Redis-backed fixed-window login throttle.
// Each Allow call increments the caller's counter; the counter expires
// with the window, so a quiet caller regains budget automatically.
func NewLoginThrottle(client *redislib.Client, limit int, window time.Duration) repository.LoginThrottle {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &throttleRepository{
		client: client,
		prefix: "login_attempts:",
		limit:  int64(limit),
		window: window,
	}
}

func (r *throttleRepository) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Incr(ctx, r.prefix+key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, r.prefix+key, r.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= r.limit, nil
}

func (r *throttleRepository) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
