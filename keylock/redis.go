// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package keylock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL       = 30 * time.Second
	DefaultRetryWait = 25 * time.Millisecond
)

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ Locker = (*RedisLocker)(nil)

// LockKey returns the Redis key for a per-key lock.
// Pattern: fieldcode:{instance_name}:lock:{key}
func LockKey(instanceName, key string) string {
	return fmt.Sprintf("fieldcode:%s:lock:%s", instanceName, key)
}

// RedisLocker is a Locker shared by every process pointed at the same Redis
// server and instance name. Locks expire after TTL if the holder dies.
type RedisLocker struct {
	rdb          redis.UniversalClient
	instanceName string

	TTL       time.Duration
	RetryWait time.Duration
	Logger    *slog.Logger
}

func NewRedisLocker(rdb redis.UniversalClient, instanceName string) (*RedisLocker, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	return &RedisLocker{
		rdb:          rdb,
		instanceName: instanceName,
		TTL:          DefaultTTL,
		RetryWait:    DefaultRetryWait,
		Logger:       slog.Default(),
	}, nil
}

// Ping verifies Redis connectivity.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := LockKey(l.instanceName, key)
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.RetryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the caller's context is already cancelled.
			if err := releaseScript.Run(context.Background(), l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.Logger.Warn("failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}
