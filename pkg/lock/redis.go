// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLease bounds how long a crashed holder can keep a RedisLock.
const DefaultLease = 30 * time.Second

// unlockScript deletes the key only while it still holds our token, so a
// holder whose lease ran out cannot release a lock someone else now owns.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock extends exclusion across instances sharing a Redis server. The
// lock is a key set with SET NX and a lease; local callers are serialised by
// a semaphore first so that one process holds at most one token.
type RedisLock[T any] struct {
	local      *SemaphoreLock[T]
	client     redis.UniversalClient
	key        string
	lease      time.Duration
	retryDelay time.Duration
	token      string
}

// RedisLockOption configures a RedisLock.
type RedisLockOption func(*redisLockConfig)

type redisLockConfig struct {
	lease      time.Duration
	retryDelay time.Duration
}

// WithLease sets how long the lock survives without an Unlock.
func WithLease(d time.Duration) RedisLockOption {
	return func(c *redisLockConfig) { c.lease = d }
}

// WithRetryDelay sets how often Lock polls a taken key.
func WithRetryDelay(d time.Duration) RedisLockOption {
	return func(c *redisLockConfig) { c.retryDelay = d }
}

// NewRedisLock returns a RedisLock on key.
func NewRedisLock[T any](client redis.UniversalClient, key string, opts ...RedisLockOption) *RedisLock[T] {
	cfg := redisLockConfig{lease: DefaultLease, retryDelay: DefaultRetryDelay}
	for _, o := range opts {
		o(&cfg)
	}
	return &RedisLock[T]{
		local:      NewSemaphoreLock[T](),
		client:     client,
		key:        key,
		lease:      cfg.lease,
		retryDelay: cfg.retryDelay,
	}
}

// Key returns the Redis key the lock is held under.
func (l *RedisLock[T]) Key() string {
	return l.key
}

// Lock waits up to timeout for both the local lock and the Redis key.
func (l *RedisLock[T]) Lock(ctx context.Context, timeout time.Duration) (bool, error) {
	waitCtx, cancel, err := acquireContext(ctx, timeout)
	if err != nil {
		return false, err
	}
	defer cancel()

	ok, err := l.local.Lock(waitCtx, timeout)
	if err != nil {
		return acquireResult(ctx, err)
	}
	if !ok {
		return false, nil
	}

	token := uuid.NewString()
	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()
	for {
		set, err := l.client.SetNX(waitCtx, l.key, token, l.lease).Result()
		if err == nil && set {
			l.token = token
			return true, nil
		}
		if err != nil && waitCtx.Err() == nil {
			_ = l.local.Unlock()
			return false, fmt.Errorf("failed to lock %s: %w", l.key, err)
		}

		select {
		case <-waitCtx.Done():
			_ = l.local.Unlock()
			return acquireResult(ctx, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// Unlock deletes the Redis key if this lock still owns it, then releases
// the local lock.
func (l *RedisLock[T]) Unlock() error {
	if !l.local.held.Load() {
		return ErrNotHeld
	}
	token := l.token
	l.token = ""

	// Unlock takes no context; the lease caps the damage of a lost release.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deleted, err := unlockScript.Run(ctx, l.client, []string{l.key}, token).Int()
	unlockErr := l.local.Unlock()
	if err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: lease on %s expired", ErrNotHeld, l.key)
	}
	return unlockErr
}
