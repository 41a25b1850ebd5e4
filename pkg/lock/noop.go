// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package lock

import (
	"context"
	"sync/atomic"
	"time"
)

// NoopLock always succeeds. Use it when a single writer is guaranteed by the
// deployment. It still counts acquisitions so an unmatched Unlock is caught.
type NoopLock[T any] struct {
	holders atomic.Int64
}

// NewNoopLock returns a NoopLock.
func NewNoopLock[T any]() *NoopLock[T] {
	return &NoopLock[T]{}
}

// Lock returns true immediately for any positive timeout.
func (l *NoopLock[T]) Lock(ctx context.Context, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		return false, ErrInvalidTimeout
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.holders.Add(1)
	return true, nil
}

// Unlock matches a previous Lock.
func (l *NoopLock[T]) Unlock() error {
	for {
		n := l.holders.Load()
		if n <= 0 {
			return ErrNotHeld
		}
		if l.holders.CompareAndSwap(n, n-1) {
			return nil
		}
	}
}
