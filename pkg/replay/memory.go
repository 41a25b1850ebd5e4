// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"k8s.io/utils/clock"
)

// DefaultSweepInterval is how often MemoryCache drops expired entries.
const DefaultSweepInterval = time.Minute

// MemoryCache is a process-local Cache on go-cache. Entries hold their
// expiry time and are judged against the configured clock, so a fake clock
// in tests controls replay windows exactly.
type MemoryCache struct {
	mu            sync.Mutex
	items         *cache.Cache
	clock         clock.PassiveClock
	sweepInterval time.Duration
	nextSweep     time.Time
}

var _ Cache = (*MemoryCache)(nil)

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*memoryCacheOptions)

type memoryCacheOptions struct {
	clock         clock.PassiveClock
	sweepInterval time.Duration
}

// WithClock sets the clock that decides when entries expire.
func WithClock(c clock.PassiveClock) MemoryCacheOption {
	return func(o *memoryCacheOptions) { o.clock = c }
}

// WithSweepInterval sets how often, on the cache clock, expired entries are
// dropped.
func WithSweepInterval(d time.Duration) MemoryCacheOption {
	return func(o *memoryCacheOptions) { o.sweepInterval = d }
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	o := memoryCacheOptions{
		clock:         clock.RealClock{},
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	c := &MemoryCache{
		// no janitor: go-cache would expire on the wall clock
		items:         cache.New(cache.NoExpiration, 0),
		clock:         o.clock,
		sweepInterval: o.sweepInterval,
	}
	c.nextSweep = c.clock.Now().Add(c.sweepInterval)
	return c
}

// TryAdd stores key until expiresAt. An expiry that has already passed
// records nothing and reports success, since the entry would be absent on
// the next lookup anyway.
func (c *MemoryCache) TryAdd(_ context.Context, key string, expiresAt time.Time) (bool, error) {
	now := c.clock.Now()
	if !expiresAt.After(now) {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep(now)
	if v, found := c.items.Get(key); found {
		if exp, _ := v.(time.Time); exp.After(now) {
			return false, nil
		}
	}
	c.items.Set(key, expiresAt, cache.NoExpiration)
	return true, nil
}

// sweep drops expired entries at most once per sweep interval. c.mu is held.
func (c *MemoryCache) sweep(now time.Time) {
	if now.Before(c.nextSweep) {
		return
	}
	c.nextSweep = now.Add(c.sweepInterval)
	for k, item := range c.items.Items() {
		if exp, _ := item.Object.(time.Time); !exp.After(now) {
			c.items.Delete(k)
		}
	}
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
