package distributed

import (
	"context"
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

func TestRedisLock_AcquireAndRelease(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:lock", "instance1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// Second holder is rejected while the lock is held.
	_, err = manager.AcquireLock(ctx, "test:lock", "instance2", 5*time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, lock.Release(ctx))

	// After release the key is free again.
	lock2, err := manager.AcquireLock(ctx, "test:lock", "instance2", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, lock2.Release(ctx))
}

func TestRedisLock_ReleaseNotHeld(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:lock:stolen", "instance1", 5*time.Second)
	require.NoError(t, err)

	// Simulate expiry plus takeover by another holder.
	client.Set(ctx, "test:lock:stolen", "instance2", 5*time.Second)

	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)

	// The other holder's lock survives our release attempt.
	val, err := client.Get(ctx, "test:lock:stolen").Result()
	require.NoError(t, err)
	assert.Equal(t, "instance2", val)
}

func TestRedisLock_Extend(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewRedisLockManager(client)
	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:lock:extend", "instance1", 2*time.Second)
	require.NoError(t, err)

	require.NoError(t, lock.Extend(ctx))

	ttl, err := client.TTL(ctx, "test:lock:extend").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Second)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Extend(ctx), ErrLockNotHeld)
}
