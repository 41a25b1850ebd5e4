// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestMemoryStoreCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := clocktesting.NewFakePassiveClock(stateEpoch)
	c := NewMemoryStoreCache(clk)

	_, ok := c.GetKeys(ctx)
	assert.False(t, ok, "empty cache misses")

	k := &KeyContainer{ID: "a"}
	c.StoreKeys(ctx, []*KeyContainer{k}, time.Minute)
	got, ok := c.GetKeys(ctx)
	assert.True(t, ok)
	assert.Equal(t, []*KeyContainer{k}, got)

	got[0] = nil
	again, _ := c.GetKeys(ctx)
	assert.Same(t, k, again[0], "callers get a copy of the slice")

	clk.SetTime(stateEpoch.Add(time.Minute))
	_, ok = c.GetKeys(ctx)
	assert.False(t, ok, "entry expires after its ttl")

	c.StoreKeys(ctx, nil, time.Minute)
	got, ok = c.GetKeys(ctx)
	assert.True(t, ok, "an empty key set is cacheable")
	assert.Empty(t, got)

	c.Invalidate(ctx)
	_, ok = c.GetKeys(ctx)
	assert.False(t, ok)

	c.StoreKeys(ctx, []*KeyContainer{k}, 0)
	_, ok = c.GetKeys(ctx)
	assert.False(t, ok, "non-positive ttl does not cache")
}
