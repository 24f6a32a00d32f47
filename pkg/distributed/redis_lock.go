package distributed

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// RedisLock is a single Redis-backed lock instance.
type RedisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// RedisLockManager acquires distributed locks backed by Redis. The worker
// uses it as a single-flight guard so that only one aggregation run is
// active at a time across processes.
type RedisLockManager struct {
	client *redis.Client
}

func NewRedisLockManager(client *redis.Client) *RedisLockManager {
	return &RedisLockManager{
		client: client,
	}
}

// AcquireLock attempts to take the lock atomically with SET NX.
// Returns ErrLockNotAcquired if another holder owns the key.
func (m *RedisLockManager) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (*RedisLock, error) {
	success, err := m.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, ErrLockNotAcquired
	}

	return &RedisLock{
		client: m.client,
		key:    key,
		value:  value,
		ttl:    ttl,
	}, nil
}

// Release deletes the lock key, but only if this instance still holds it.
// The check-and-delete runs as a Lua script so an expired lock re-acquired
// by another holder is never released by us.
func (l *RedisLock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	result, err := script.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return err
	}

	if result == 0 {
		return ErrLockNotHeld
	}

	return nil
}

// Extend refreshes the lock TTL while it is still held.
func (l *RedisLock) Extend(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)

	result, err := script.Run(ctx, l.client, []string{l.key}, l.value, l.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}

	if result == 0 {
		return ErrLockNotHeld
	}

	return nil
}
