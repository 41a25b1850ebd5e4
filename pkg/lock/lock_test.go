// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResource struct{}

func locksUnderTest(t *testing.T) map[string]func() Lock[testResource] {
	t.Helper()
	dir := t.TempDir()
	client := newRedisClient(t)
	return map[string]func() Lock[testResource]{
		"semaphore": func() Lock[testResource] { return NewSemaphoreLock[testResource]() },
		"file":      func() Lock[testResource] { return NewFileLock[testResource](filepath.Join(dir, "test.lock")) },
		"redis": func() Lock[testResource] {
			return NewRedisLock[testResource](client, "test:lock", WithRetryDelay(5*time.Millisecond))
		},
	}
}

func newRedisServer(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	_, client := newRedisServer(t)
	return client
}

func TestLock_InvalidTimeout(t *testing.T) {
	t.Parallel()

	all := locksUnderTest(t)
	all["noop"] = func() Lock[testResource] { return NewNoopLock[testResource]() }

	for name, newLock := range all {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			l := newLock()
			for _, timeout := range []time.Duration{0, -time.Second} {
				ok, err := l.Lock(context.Background(), timeout)
				assert.False(t, ok)
				assert.ErrorIs(t, err, ErrInvalidTimeout)
			}
		})
	}
}

func TestLock_UnlockWithoutLock(t *testing.T) {
	t.Parallel()

	all := locksUnderTest(t)
	all["noop"] = func() Lock[testResource] { return NewNoopLock[testResource]() }

	for name, newLock := range all {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			l := newLock()
			assert.ErrorIs(t, l.Unlock(), ErrNotHeld)

			ok, err := l.Lock(context.Background(), time.Second)
			require.NoError(t, err)
			require.True(t, ok)
			require.NoError(t, l.Unlock())
			assert.ErrorIs(t, l.Unlock(), ErrNotHeld, "double unlock")
		})
	}
}

func TestLock_TimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	for name, newLock := range locksUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			l := newLock()
			ok, err := l.Lock(context.Background(), time.Second)
			require.NoError(t, err)
			require.True(t, ok)

			start := time.Now()
			ok, err = l.Lock(context.Background(), 100*time.Millisecond)
			assert.NoError(t, err, "timeout is not an error")
			assert.False(t, ok)
			assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

			require.NoError(t, l.Unlock())
			ok, err = l.Lock(context.Background(), time.Second)
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, l.Unlock())
		})
	}
}

func TestLock_CancelledContext(t *testing.T) {
	t.Parallel()

	l := NewSemaphoreLock[testResource]()
	ok, err := l.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = l.Lock(ctx, time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)

	n := NewNoopLock[testResource]()
	ok, err = n.Lock(ctx, time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLock_MutualExclusion(t *testing.T) {
	t.Parallel()

	for name, newLock := range locksUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			l := newLock()
			var (
				inside  atomic.Int32
				maxSeen atomic.Int32
				wg      sync.WaitGroup
			)
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := l.Lock(context.Background(), 5*time.Second)
					if err != nil || !ok {
						return
					}
					n := inside.Add(1)
					if n > maxSeen.Load() {
						maxSeen.Store(n)
					}
					time.Sleep(5 * time.Millisecond)
					inside.Add(-1)
					_ = l.Unlock()
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), maxSeen.Load())
		})
	}
}

func TestFileLock_ExcludesOtherInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.lock")
	first := NewFileLock[testResource](path)
	second := NewFileLock[testResource](path)
	assert.Equal(t, path, first.Path())

	ok, err := first.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Lock(context.Background(), 150*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "second instance must not acquire a held file lock")

	require.NoError(t, first.Unlock())
	ok, err = second.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock())
}

func TestNoopLock_AlwaysSucceeds(t *testing.T) {
	t.Parallel()

	l := NewNoopLock[testResource]()
	for range 3 {
		ok, err := l.Lock(context.Background(), time.Millisecond)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	for range 3 {
		require.NoError(t, l.Unlock())
	}
	assert.ErrorIs(t, l.Unlock(), ErrNotHeld)
}

func TestRedisLock_ExcludesOtherInstances(t *testing.T) {
	t.Parallel()

	mr, client := newRedisServer(t)
	first := NewRedisLock[testResource](client, "keys:lock", WithRetryDelay(5*time.Millisecond))
	second := NewRedisLock[testResource](client, "keys:lock", WithRetryDelay(5*time.Millisecond))
	assert.Equal(t, "keys:lock", first.Key())

	ok, err := first.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("keys:lock"))

	ok, err = second.Lock(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "second instance must not acquire a held key")

	require.NoError(t, first.Unlock())
	assert.False(t, mr.Exists("keys:lock"))

	ok, err = second.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock())
}

func TestRedisLock_ExpiredLeaseKeepsNewOwner(t *testing.T) {
	t.Parallel()

	mr, client := newRedisServer(t)
	first := NewRedisLock[testResource](client, "keys:lock", WithLease(time.Second), WithRetryDelay(5*time.Millisecond))
	second := NewRedisLock[testResource](client, "keys:lock", WithLease(time.Second), WithRetryDelay(5*time.Millisecond))

	ok, err := first.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = second.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok, "an expired lease frees the key")

	err = first.Unlock()
	assert.ErrorIs(t, err, ErrNotHeld)
	assert.True(t, mr.Exists("keys:lock"), "stale holder must not delete the new owner's key")

	require.NoError(t, second.Unlock())
	assert.False(t, mr.Exists("keys:lock"))
}

func TestRedisLock_ServerError(t *testing.T) {
	t.Parallel()

	mr, client := newRedisServer(t)
	mr.Close()

	l := NewRedisLock[testResource](client, "keys:lock")
	ok, err := l.Lock(context.Background(), 10*time.Second)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to lock keys:lock")

	// the local lock was released on failure
	assert.ErrorIs(t, l.Unlock(), ErrNotHeld)
}
