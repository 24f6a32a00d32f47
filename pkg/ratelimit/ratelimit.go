package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window rate limiter shared across instances.
// Prompt-submitting endpoints use it per client IP since the service has no
// accounts to meter on.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisRateLimiter(client *redis.Client, keyPrefix string) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Allow reports whether the caller identified by key may make another
// request within the window. The count-and-expire pair runs as a Lua script
// so concurrent requests cannot race past the limit.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	script := redis.NewScript(`
		local current = redis.call('INCR', KEYS[1])
		if current == 1 then
			redis.call('PEXPIRE', KEYS[1], ARGV[2])
		end
		if current > tonumber(ARGV[1]) then
			return 0
		end
		return 1
	`)

	result, err := script.Run(ctx, r.client, []string{r.keyPrefix + key}, limit, window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}
