// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"

	"github.com/stacklok/tokencore/pkg/storage"
)

// RedisCache shares replay state between instances. SET NX with a TTL is
// atomic on the server, so the add-if-absent guarantee holds across
// processes.
type RedisCache struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     clock.PassiveClock
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache returns a RedisCache storing keys under keyPrefix.
func NewRedisCache(client redis.UniversalClient, keyPrefix string, c clock.PassiveClock) *RedisCache {
	if c == nil {
		c = clock.RealClock{}
	}
	return &RedisCache{client: client, keyPrefix: keyPrefix, clock: c}
}

// TryAdd stores key with a TTL of the time remaining until expiresAt.
func (r *RedisCache) TryAdd(ctx context.Context, key string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return true, nil
	}
	// Redis rounds PX down to whole milliseconds; 0 would mean no expiry.
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	ok, err := r.client.SetNX(ctx, storage.RedisKey(r.keyPrefix, storage.KeyTypeReplay, key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record replay key: %w", err)
	}
	return ok, nil
}
