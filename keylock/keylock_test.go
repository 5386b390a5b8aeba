// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package keylock

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseLocker checks that holders of one key never overlap.
func exerciseLocker(t *testing.T, l Locker) {
	t.Helper()

	const workers = 8
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "same-key")
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load(), "lock holders overlapped")
}

func TestMemoryLocker_Serializes(t *testing.T) {
	l := NewMemoryLocker()
	exerciseLocker(t, l)
	assert.Zero(t, l.held(), "entries should be released")
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryLocker()

	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLocker_ContextCancelled(t *testing.T) {
	l := NewMemoryLocker()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op
	assert.Zero(t, l.held())
}

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	l, err := NewRedisLocker(rdb, "test-instance")
	require.NoError(t, err)
	l.RetryWait = time.Millisecond
	return l, mr
}

func TestRedisLocker_Serializes(t *testing.T) {
	l, mr := newRedisLocker(t)
	require.NoError(t, l.Ping(context.Background()))

	exerciseLocker(t, l)
	assert.False(t, mr.Exists(LockKey("test-instance", "same-key")))
}

func TestRedisLocker_ReleaseOnlyOwnLock(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()
	key := LockKey("test-instance", "k")

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))

	// Simulate expiry and takeover by another process.
	mr.FastForward(l.TTL + time.Second)
	require.NoError(t, mr.Set(key, "someone-else"))

	unlock()
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	l, _ := newRedisLocker(t)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_ReleaseFailureIsLogged(t *testing.T) {
	l, mr := newRedisLocker(t)

	var buf bytes.Buffer
	l.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	mr.Close()
	unlock()

	assert.Contains(t, buf.String(), "failed to release lock")
	assert.Contains(t, buf.String(), "key=k")
}

func TestNewRedisLocker_RequiresInstance(t *testing.T) {
	_, err := NewRedisLocker(redis.NewClient(&redis.Options{}), "")
	assert.Error(t, err)
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "fieldcode:prod:lock:1:f:2021-03-01/2021-03-02", LockKey("prod", "1:f:2021-03-01/2021-03-02"))
}
