// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// SemaphoreLock is an in-process lock backed by a weighted semaphore of size one.
type SemaphoreLock[T any] struct {
	sem  *semaphore.Weighted
	held atomic.Bool
}

// NewSemaphoreLock returns an unlocked SemaphoreLock.
func NewSemaphoreLock[T any]() *SemaphoreLock[T] {
	return &SemaphoreLock[T]{sem: semaphore.NewWeighted(1)}
}

// Lock waits up to timeout for the semaphore.
func (l *SemaphoreLock[T]) Lock(ctx context.Context, timeout time.Duration) (bool, error) {
	waitCtx, cancel, err := acquireContext(ctx, timeout)
	if err != nil {
		return false, err
	}
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		return acquireResult(ctx, err)
	}
	l.held.Store(true)
	return true, nil
}

// Unlock releases the semaphore.
func (l *SemaphoreLock[T]) Unlock() error {
	if !l.held.CompareAndSwap(true, false) {
		return ErrNotHeld
	}
	l.sem.Release(1)
	return nil
}
