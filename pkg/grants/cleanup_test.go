// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package grants_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/stacklok/tokencore/pkg/grants"
	"github.com/stacklok/tokencore/pkg/storage"
	storagemocks "github.com/stacklok/tokencore/pkg/storage/mocks"
)

func fastOptions(batch int) grants.CleanupOptions {
	opts := grants.DefaultCleanupOptions()
	opts.BatchSize = batch
	opts.RetryInterval = time.Millisecond
	return opts
}

// recordingNotification collects every record handed to it.
type recordingNotification struct {
	mu          sync.Mutex
	grants      []string
	deviceCodes []string
	calls       int
	err         error
}

func (n *recordingNotification) PersistedGrantsRemoved(_ context.Context, gs []storage.PersistedGrant) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	for _, g := range gs {
		n.grants = append(n.grants, g.Key)
	}
	return n.err
}

func (n *recordingNotification) DeviceCodesRemoved(_ context.Context, cs []storage.DeviceCode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	for _, c := range cs {
		n.deviceCodes = append(n.deviceCodes, c.DeviceCode)
	}
	return n.err
}

func (n *recordingNotification) snapshot() ([]string, []string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	gs := append([]string(nil), n.grants...)
	cs := append([]string(nil), n.deviceCodes...)
	sort.Strings(gs)
	sort.Strings(cs)
	return gs, cs, n.calls
}

func seedExpired(t *testing.T, store *storage.MemoryStorage, grantCount, codeCount int) {
	t.Helper()
	ctx := context.Background()
	for i := range grantCount {
		require.NoError(t, store.StoreGrant(ctx, &storage.PersistedGrant{
			Key:          fmt.Sprintf("expired-%d", i),
			Type:         "refresh_token",
			SubjectID:    "alice",
			ClientID:     "web",
			CreationTime: testEpoch.Add(-time.Hour),
			Expiration:   at(-time.Duration(i+1) * time.Minute),
		}))
	}
	require.NoError(t, store.StoreGrant(ctx, &storage.PersistedGrant{
		Key:          "live",
		Type:         "refresh_token",
		SubjectID:    "alice",
		ClientID:     "web",
		CreationTime: testEpoch,
		Expiration:   at(time.Hour),
	}))
	require.NoError(t, store.StoreGrant(ctx, &storage.PersistedGrant{
		Key:          "forever",
		Type:         "user_consent",
		SubjectID:    "alice",
		ClientID:     "web",
		CreationTime: testEpoch,
	}))
	for i := range codeCount {
		require.NoError(t, store.StoreDeviceAuthorization(ctx, &storage.DeviceCode{
			DeviceCode:   fmt.Sprintf("device-%d", i),
			UserCode:     fmt.Sprintf("USER-%d", i),
			ClientID:     "tv",
			CreationTime: testEpoch.Add(-time.Hour),
			Expiration:   testEpoch.Add(-time.Minute),
		}))
	}
}

func TestCleanup_RunOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clk := clocktesting.NewFakeClock(testEpoch)
	store := storage.NewMemoryStorage(storage.WithClock(clk))
	t.Cleanup(func() { _ = store.Close() })
	seedExpired(t, store, 5, 3)

	notify := &recordingNotification{}
	cleanup, err := grants.NewCleanup(store, fastOptions(2),
		grants.WithDeviceFlowStore(store),
		grants.WithNotification(notify),
		grants.WithCleanupClock(clk))
	require.NoError(t, err)

	result, err := cleanup.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, grants.CleanupResult{GrantsRemoved: 5, DeviceCodesRemoved: 3}, result)

	removedGrants, removedCodes, calls := notify.snapshot()
	assert.Equal(t, []string{"expired-0", "expired-1", "expired-2", "expired-3", "expired-4"}, removedGrants)
	assert.Equal(t, []string{"device-0", "device-1", "device-2"}, removedCodes)
	// 2+2+1 grants and 2+1 device codes.
	assert.Equal(t, 5, calls)

	left, err := store.GetAllGrants(ctx, storage.PersistedGrantFilter{SubjectID: "alice"})
	require.NoError(t, err)
	assert.Len(t, left, 2)

	result, err = cleanup.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result)
}

func TestCleanup_RunOnceRecordsMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clk := clocktesting.NewFakeClock(testEpoch)
	store := storage.NewMemoryStorage(storage.WithClock(clk))
	t.Cleanup(func() { _ = store.Close() })
	seedExpired(t, store, 3, 2)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	cleanup, err := grants.NewCleanup(store, fastOptions(10),
		grants.WithDeviceFlowStore(store),
		grants.WithCleanupClock(clk),
		grants.WithCleanupMeterProvider(mp))
	require.NoError(t, err)

	_, err = cleanup.RunOnce(ctx)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	removed := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tokencore_cleanup_records_removed_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				record, _ := dp.Attributes.Value(attribute.Key("record"))
				removed[record.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"grants": 3, "device_codes": 2}, removed)
}

func TestCleanup_RunOnceThrottlesBatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clk := clocktesting.NewFakeClock(testEpoch)
	store := storage.NewMemoryStorage(storage.WithClock(clk))
	t.Cleanup(func() { _ = store.Close() })
	seedExpired(t, store, 4, 0)

	opts := fastOptions(1)
	opts.BatchesPerSecond = 20
	cleanup, err := grants.NewCleanup(store, opts, grants.WithCleanupClock(clk))
	require.NoError(t, err)

	start := time.Now()
	result, err := cleanup.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.GrantsRemoved)
	// five store calls with a burst of one wait at least four intervals
	assert.GreaterOrEqual(t, time.Since(start), 4*50*time.Millisecond-10*time.Millisecond)
}

func TestCleanup_RunOnceFullLastBatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockPersistedGrantStore(ctrl)
	clk := clocktesting.NewFakeClock(testEpoch)

	full := []storage.PersistedGrant{{Key: "a"}, {Key: "b"}}
	gomock.InOrder(
		store.EXPECT().RemoveExpiredGrants(gomock.Any(), testEpoch, 2).Return(full, nil),
		store.EXPECT().RemoveExpiredGrants(gomock.Any(), testEpoch, 2).Return(nil, nil),
	)

	cleanup, err := grants.NewCleanup(store, fastOptions(2), grants.WithCleanupClock(clk))
	require.NoError(t, err)

	result, err := cleanup.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.GrantsRemoved)
}

func TestCleanup_Retries(t *testing.T) {
	t.Parallel()

	boom := errors.New("database is locked")

	t.Run("transient failure", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		store := storagemocks.NewMockPersistedGrantStore(ctrl)
		devices := storagemocks.NewMockDeviceFlowStore(ctrl)
		notify := storagemocks.NewMockOperationalStoreNotification(ctrl)
		clk := clocktesting.NewFakeClock(testEpoch)

		removed := []storage.PersistedGrant{{Key: "a"}}
		gomock.InOrder(
			store.EXPECT().RemoveExpiredGrants(gomock.Any(), testEpoch, 10).Return(nil, boom),
			store.EXPECT().RemoveExpiredGrants(gomock.Any(), testEpoch, 10).Return(removed, nil),
		)
		devices.EXPECT().RemoveExpiredDeviceCodes(gomock.Any(), testEpoch, 10).Return(nil, nil)
		notify.EXPECT().PersistedGrantsRemoved(gomock.Any(), removed).Return(nil)

		cleanup, err := grants.NewCleanup(store, fastOptions(10),
			grants.WithDeviceFlowStore(devices),
			grants.WithNotification(notify),
			grants.WithCleanupClock(clk))
		require.NoError(t, err)

		result, err := cleanup.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, grants.CleanupResult{GrantsRemoved: 1}, result)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		store := storagemocks.NewMockPersistedGrantStore(ctrl)
		devices := storagemocks.NewMockDeviceFlowStore(ctrl)
		clk := clocktesting.NewFakeClock(testEpoch)

		opts := fastOptions(10)
		opts.MaxRetries = 2
		store.EXPECT().RemoveExpiredGrants(gomock.Any(), testEpoch, 10).Return(nil, boom).Times(3)

		cleanup, err := grants.NewCleanup(store, opts,
			grants.WithDeviceFlowStore(devices),
			grants.WithCleanupClock(clk))
		require.NoError(t, err)

		_, err = cleanup.RunOnce(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCleanup_NotificationErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(testEpoch)
	store := storage.NewMemoryStorage(storage.WithClock(clk))
	t.Cleanup(func() { _ = store.Close() })
	seedExpired(t, store, 3, 1)

	notify := &recordingNotification{err: errors.New("subscriber unavailable")}
	cleanup, err := grants.NewCleanup(store, fastOptions(10),
		grants.WithDeviceFlowStore(store),
		grants.WithNotification(notify),
		grants.WithCleanupClock(clk))
	require.NoError(t, err)

	result, err := cleanup.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, grants.CleanupResult{GrantsRemoved: 3, DeviceCodesRemoved: 1}, result)
}

func TestCleanup_StartStop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clk := clocktesting.NewFakeClock(testEpoch)
	store := storage.NewMemoryStorage(storage.WithClock(clk))
	t.Cleanup(func() { _ = store.Close() })
	seedExpired(t, store, 4, 0)

	notify := &recordingNotification{}
	opts := fastOptions(3)
	opts.Interval = time.Minute
	cleanup, err := grants.NewCleanup(store, opts,
		grants.WithNotification(notify),
		grants.WithCleanupClock(clk))
	require.NoError(t, err)

	require.NoError(t, cleanup.Start(ctx))
	require.Error(t, cleanup.Start(ctx), "second start must fail")

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	removed, _, _ := notify.snapshot()
	assert.Empty(t, removed, "nothing runs before the first tick")

	clk.Step(time.Minute)
	require.Eventually(t, func() bool {
		removed, _, _ := notify.snapshot()
		return len(removed) == 4
	}, time.Second, time.Millisecond)

	cleanup.Stop()
	cleanup.Stop()

	require.NoError(t, cleanup.Start(ctx), "start after stop")
	cleanup.Stop()
}

func TestCleanup_StopsWithContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockPersistedGrantStore(ctrl)
	clk := clocktesting.NewFakeClock(testEpoch)

	cleanup, err := grants.NewCleanup(store, fastOptions(10), grants.WithCleanupClock(clk))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, cleanup.Start(ctx))
	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		cleanup.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop after context cancellation")
	}
}

func TestCleanupOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*grants.CleanupOptions)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*grants.CleanupOptions) {}},
		{name: "zero interval", mutate: func(o *grants.CleanupOptions) { o.Interval = 0 }, wantErr: true},
		{name: "zero batch", mutate: func(o *grants.CleanupOptions) { o.BatchSize = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(o *grants.CleanupOptions) { o.MaxRetries = -1 }, wantErr: true},
		{name: "too many retries", mutate: func(o *grants.CleanupOptions) { o.MaxRetries = 11 }, wantErr: true},
		{name: "no retries", mutate: func(o *grants.CleanupOptions) { o.MaxRetries = 0 }},
		{name: "zero retry interval", mutate: func(o *grants.CleanupOptions) { o.RetryInterval = 0 }, wantErr: true},
		{name: "throttled", mutate: func(o *grants.CleanupOptions) { o.BatchesPerSecond = 2.5 }},
		{name: "negative rate", mutate: func(o *grants.CleanupOptions) { o.BatchesPerSecond = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := grants.DefaultCleanupOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := grants.NewCleanup(nil, grants.DefaultCleanupOptions())
	assert.Error(t, err)
}
