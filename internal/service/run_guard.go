package service

import (
	"context"
	"errors"
	"time"

	"github.com/Chungws/lmarena-clone/pkg/distributed"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

const (
	aggregationLockKey = "lmarena:aggregation:lock"
	aggregationLockTTL = 10 * time.Minute
)

// RedisRunGuard adapts the Redis lock manager to the aggregator's RunGuard
// interface. One guard value per process; the lock key is shared. While a
// run holds the lock its TTL is refreshed at half-TTL intervals so runs
// longer than the TTL do not lose the lock mid-flight.
type RedisRunGuard struct {
	manager *distributed.RedisLockManager
	owner   string
}

func NewRedisRunGuard(manager *distributed.RedisLockManager, owner string) *RedisRunGuard {
	return &RedisRunGuard{
		manager: manager,
		owner:   owner,
	}
}

func (g *RedisRunGuard) TryAcquire(ctx context.Context) (func(), bool, error) {
	lock, err := g.manager.AcquireLock(ctx, aggregationLockKey, g.owner, aggregationLockTTL)
	if err != nil {
		if errors.Is(err, distributed.ErrLockNotAcquired) {
			return nil, false, nil
		}
		return nil, false, err
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(aggregationLockTTL / 2)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lock.Extend(context.Background()); err != nil {
					// The lock expired or changed hands; stop refreshing.
					logger.Warn("Failed to extend aggregation lock", "error", err)
					return
				}
			}
		}
	}()

	release := func() {
		close(done)
		if err := lock.Release(context.Background()); err != nil {
			logger.Warn("Failed to release aggregation lock", "error", err)
		}
	}

	return release, true, nil
}
