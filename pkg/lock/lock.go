// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package lock provides mutual exclusion with a bounded wait.
//
// A Lock is parameterised by a marker type naming the guarded resource, so a
// Lock[keys.KeyGeneration] cannot be passed where a lock for another
// resource is expected. Timing out is an expected outcome reported as
// (false, nil); only misuse and cancellation are errors.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidTimeout is returned for a zero or negative timeout.
	ErrInvalidTimeout = errors.New("lock timeout must be positive")

	// ErrNotHeld is returned by Unlock when the lock is not held.
	ErrNotHeld = errors.New("lock is not held")
)

// Lock guards the resource identified by T.
type Lock[T any] interface {
	// Lock waits up to timeout for the lock. It returns false with a nil
	// error when the timeout elapses, and ctx's error if ctx ends first.
	Lock(ctx context.Context, timeout time.Duration) (bool, error)
	// Unlock releases a lock obtained from Lock.
	Unlock() error
}

// acquireContext derives the bounded-wait context for a Lock call.
func acquireContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if timeout <= 0 {
		return nil, nil, ErrInvalidTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	return waitCtx, cancel, nil
}

// acquireResult maps a failed wait to the Lock result: the caller's own
// cancellation is an error, our timeout is not.
func acquireResult(parent context.Context, err error) (bool, error) {
	if parentErr := parent.Err(); parentErr != nil {
		return false, parentErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false, nil
	}
	return false, err
}
