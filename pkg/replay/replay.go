// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package replay remembers one-time identifiers, such as DPoP proof IDs,
// until they expire.
package replay

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_replay.go -package=mocks -source=replay.go Cache

// Cache records identifiers until their expiry.
type Cache interface {
	// TryAdd stores key until expiresAt if it is absent or expired and
	// reports whether it did. The check and the insert are one atomic step:
	// of any number of concurrent calls with the same key, at most one
	// returns true.
	TryAdd(ctx context.Context, key string, expiresAt time.Time) (bool, error)
}
