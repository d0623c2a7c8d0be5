package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// LeaderElector is a SETNX lease. The scheduled sweep uses it so only one
// instance sweeps per tick.
type LeaderElector struct {
	rdb        *goredis.Client
	instanceID string
	lockKey    string
	lockTTL    time.Duration
}

// NewLeaderElector creates a lease holder. instanceID must be unique per
// instance, e.g. hostname-PID.
func NewLeaderElector(rdb *goredis.Client, instanceID string, ttl time.Duration) *LeaderElector {
	return &LeaderElector{
		rdb:        rdb,
		instanceID: instanceID,
		lockKey:    "sweep:leader",
		lockTTL:    ttl,
	}
}

// TryAcquire takes the lease if it is free or already ours, extending it in
// the second case.
func (l *LeaderElector) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.lockKey, l.instanceID, l.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire leader lock: %w", err)
	}
	if ok {
		return true, nil
	}

	current, err := l.rdb.Get(ctx, l.lockKey).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check leader: %w", err)
	}
	if current != l.instanceID {
		return false, nil
	}

	if err := l.rdb.Expire(ctx, l.lockKey, l.lockTTL).Err(); err != nil {
		return false, fmt.Errorf("failed to renew leader lock: %w", err)
	}
	return true, nil
}

// Release drops the lease if we still hold it.
func (l *LeaderElector) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.lockKey}, l.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	return nil
}
