package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available:", err)
	}

	client.FlushDB(ctx)

	return client
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	limiter := NewRedisRateLimiter(client, "test:ratelimit:")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "ip:1.2.3.4", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "ip:1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be rejected")
}

func TestRedisRateLimiter_SeparateKeys(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	limiter := NewRedisRateLimiter(client, "test:ratelimit:")
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "ip:1.1.1.1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ip:1.1.1.1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different key has its own window.
	allowed, err = limiter.Allow(ctx, "ip:2.2.2.2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_WindowExpires(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	limiter := NewRedisRateLimiter(client, "test:ratelimit:")
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "ip:3.3.3.3", 1, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "ip:3.3.3.3", 1, 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(300 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "ip:3.3.3.3", 1, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Concurrent(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	limiter := NewRedisRateLimiter(client, "test:ratelimit:")
	ctx := context.Background()

	const workers = 20
	const limit = 10

	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			allowed, err := limiter.Allow(ctx, "ip:shared", limit, time.Minute)
			if err != nil {
				results <- false
				return
			}
			results <- allowed
		}()
	}

	allowedCount := 0
	for i := 0; i < workers; i++ {
		if <-results {
			allowedCount++
		}
	}

	// The Lua script is atomic, so exactly limit requests pass.
	assert.Equal(t, limit, allowedCount,
		fmt.Sprintf("expected exactly %d of %d concurrent requests allowed", limit, workers))
}
