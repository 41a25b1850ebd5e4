// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"context"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

//go:generate mockgen -destination=mocks/mock_cache.go -package=mocks -source=cache.go StoreCache

// StoreCache caches the decoded key set between store reads.
type StoreCache interface {
	// GetKeys returns the cached keys, or false when nothing is cached or
	// the entry expired.
	GetKeys(ctx context.Context) ([]*KeyContainer, bool)
	// StoreKeys caches keys for ttl.
	StoreKeys(ctx context.Context, ks []*KeyContainer, ttl time.Duration)
	// Invalidate drops the cached keys.
	Invalidate(ctx context.Context)
}

// MemoryStoreCache is a process-local StoreCache.
type MemoryStoreCache struct {
	mu      sync.RWMutex
	clock   clock.PassiveClock
	keys    []*KeyContainer
	expires time.Time
}

// NewMemoryStoreCache creates an empty cache. A nil clock uses wall time.
func NewMemoryStoreCache(c clock.PassiveClock) *MemoryStoreCache {
	if c == nil {
		c = clock.RealClock{}
	}
	return &MemoryStoreCache{clock: c}
}

// GetKeys implements StoreCache.
func (c *MemoryStoreCache) GetKeys(_ context.Context) ([]*KeyContainer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.keys == nil || !c.clock.Now().Before(c.expires) {
		return nil, false
	}
	return slices.Clone(c.keys), true
}

// StoreKeys implements StoreCache.
func (c *MemoryStoreCache) StoreKeys(_ context.Context, keys []*KeyContainer, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		c.keys = nil
		return
	}
	c.keys = slices.Clone(keys)
	if c.keys == nil {
		c.keys = []*KeyContainer{}
	}
	c.expires = c.clock.Now().Add(ttl)
}

// Invalidate implements StoreCache.
func (c *MemoryStoreCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = nil
}

var _ StoreCache = (*MemoryStoreCache)(nil)
