// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// DefaultRetryDelay is how often FileLock polls for the advisory lock.
const DefaultRetryDelay = 50 * time.Millisecond

// FileLock extends exclusion across processes that share a lock file, such
// as several instances using one key directory. A flock.Flock reports
// success when it already holds the lock, so an in-process semaphore
// serialises local callers first.
type FileLock[T any] struct {
	local      *SemaphoreLock[T]
	file       *flock.Flock
	retryDelay time.Duration
}

// NewFileLock returns a FileLock on path. The file is created on first use.
func NewFileLock[T any](path string) *FileLock[T] {
	return &FileLock[T]{
		local:      NewSemaphoreLock[T](),
		file:       flock.New(path),
		retryDelay: DefaultRetryDelay,
	}
}

// Path returns the lock file path.
func (l *FileLock[T]) Path() string {
	return l.file.Path()
}

// Lock waits up to timeout for both the local and the file lock.
func (l *FileLock[T]) Lock(ctx context.Context, timeout time.Duration) (bool, error) {
	waitCtx, cancel, err := acquireContext(ctx, timeout)
	if err != nil {
		return false, err
	}
	defer cancel()

	// the local wait shares the deadline with the file wait
	ok, err := l.local.Lock(waitCtx, timeout)
	if err != nil {
		return acquireResult(ctx, err)
	}
	if !ok {
		return false, nil
	}

	locked, err := l.file.TryLockContext(waitCtx, l.retryDelay)
	if err == nil && locked {
		return true, nil
	}
	_ = l.local.Unlock()
	if err == nil {
		return false, nil
	}
	if ctx.Err() == nil && !errors.Is(err, context.DeadlineExceeded) {
		return false, fmt.Errorf("failed to lock %s: %w", l.file.Path(), err)
	}
	return acquireResult(ctx, err)
}

// Unlock releases the file lock and then the local lock.
func (l *FileLock[T]) Unlock() error {
	if !l.local.held.Load() {
		return ErrNotHeld
	}
	if err := l.file.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.file.Path(), err)
	}
	return l.local.Unlock()
}
