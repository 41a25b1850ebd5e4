// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package grants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"

	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/storage"
)

const (
	// DefaultCleanupInterval is the time between cleanup passes.
	DefaultCleanupInterval = time.Hour

	// DefaultBatchSize is the number of records removed per store call.
	DefaultBatchSize = 100

	// DefaultMaxRetries is the number of retries for a failed batch.
	DefaultMaxRetries = 3

	defaultRetryInterval = 500 * time.Millisecond

	instrumentationName = "github.com/stacklok/tokencore/pkg/grants"
)

// CleanupOptions configures a Cleanup.
type CleanupOptions struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// RetryInterval is the first backoff delay for a failed batch.
	RetryInterval time.Duration
	// BatchesPerSecond caps the rate of store calls. Zero means unlimited.
	BatchesPerSecond float64
}

// DefaultCleanupOptions returns the default cleanup settings.
func DefaultCleanupOptions() CleanupOptions {
	return CleanupOptions{
		Interval:      DefaultCleanupInterval,
		BatchSize:     DefaultBatchSize,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: defaultRetryInterval,
	}
}

// Validate checks the cleanup settings.
func (o CleanupOptions) Validate() error {
	if o.Interval <= 0 {
		return errors.New("cleanup interval must be positive")
	}
	if o.BatchSize <= 0 {
		return errors.New("cleanup batch size must be positive")
	}
	if o.MaxRetries < 0 || o.MaxRetries > 10 {
		return errors.New("cleanup max retries must be between 0 and 10")
	}
	if o.RetryInterval <= 0 {
		return errors.New("cleanup retry interval must be positive")
	}
	if o.BatchesPerSecond < 0 {
		return errors.New("cleanup batches per second must not be negative")
	}
	return nil
}

// CleanupResult counts the records removed by one pass.
type CleanupResult struct {
	GrantsRemoved      int
	DeviceCodesRemoved int
}

// Cleanup removes expired persisted grants and device codes.
type Cleanup struct {
	grants  storage.PersistedGrantStore
	devices storage.DeviceFlowStore
	notify  storage.OperationalStoreNotification
	opts    CleanupOptions
	clock   clock.WithTicker
	logger  *slog.Logger

	meterProvider metric.MeterProvider
	removed       metric.Int64Counter
	limiter       *rate.Limiter

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// CleanupOption configures a Cleanup.
type CleanupOption func(*Cleanup)

// WithNotification sets the sink that receives removed records.
func WithNotification(n storage.OperationalStoreNotification) CleanupOption {
	return func(c *Cleanup) { c.notify = n }
}

// WithDeviceFlowStore enables removal of expired device codes.
func WithDeviceFlowStore(s storage.DeviceFlowStore) CleanupOption {
	return func(c *Cleanup) { c.devices = s }
}

// WithCleanupClock sets the clock that drives the interval and expiry.
func WithCleanupClock(clk clock.WithTicker) CleanupOption {
	return func(c *Cleanup) { c.clock = clk }
}

// WithCleanupLogger sets the logger.
func WithCleanupLogger(l *slog.Logger) CleanupOption {
	return func(c *Cleanup) { c.logger = l }
}

// WithCleanupMeterProvider sets the meter provider for removal counts.
func WithCleanupMeterProvider(mp metric.MeterProvider) CleanupOption {
	return func(c *Cleanup) { c.meterProvider = mp }
}

// NewCleanup creates a Cleanup over the grant store.
func NewCleanup(grants storage.PersistedGrantStore, opts CleanupOptions, options ...CleanupOption) (*Cleanup, error) {
	if grants == nil {
		return nil, errors.New("persisted grant store is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cleanup options: %w", err)
	}
	c := &Cleanup{
		grants: grants,
		notify: &storage.NoopNotification{},
		opts:   opts,
		clock:  clock.RealClock{},
		logger: logger.ForComponent("grants-cleanup"),

		meterProvider: metricnoop.NewMeterProvider(),
		limiter:       rate.NewLimiter(rate.Inf, 1),
	}
	if opts.BatchesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.BatchesPerSecond), 1)
	}
	for _, o := range options {
		o(c)
	}

	var err error
	c.removed, err = c.meterProvider.Meter(instrumentationName).Int64Counter(
		"tokencore_cleanup_records_removed_total",
		metric.WithDescription("Total number of expired records removed by cleanup"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cleanup counter: %w", err)
	}
	return c, nil
}

// Start runs a cleanup pass every interval until Stop is called or ctx is
// done. It returns an error if the loop is already running.
func (c *Cleanup) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return errors.New("cleanup is already running")
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.run(ctx, c.stop, c.done)
	c.logger.Info("started token cleanup",
		"interval", c.opts.Interval.String(),
		"batch_size", c.opts.BatchSize)
	return nil
}

// Stop stops the loop and waits for the current pass to finish. It is a
// no-op when the loop is not running.
func (c *Cleanup) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stop, done := c.stop, c.done
	c.mu.Unlock()

	close(stop)
	<-done
}

func (c *Cleanup) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := c.clock.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("token cleanup failed", "error", err)
			}
		case <-stop:
			c.logger.Debug("token cleanup stopped")
			return
		case <-ctx.Done():
			c.logger.Debug("token cleanup stopped", "reason", ctx.Err())
			return
		}
	}
}

// RunOnce removes every record expired at the current time, one batch at
// a time. Grants are removed before device codes; a failure in either stops
// the pass and returns what was removed so far.
func (c *Cleanup) RunOnce(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult
	now := c.clock.Now()

	n, err := drain(ctx, c, "grants", func(ctx context.Context) (int, error) {
		removed, err := c.grants.RemoveExpiredGrants(ctx, now, c.opts.BatchSize)
		if err != nil {
			return 0, err
		}
		if len(removed) > 0 {
			if nerr := c.notify.PersistedGrantsRemoved(ctx, removed); nerr != nil {
				c.logger.Warn("grant removal notification failed", "error", nerr)
			}
		}
		return len(removed), nil
	})
	result.GrantsRemoved = n
	if err != nil {
		return result, fmt.Errorf("failed to remove expired grants: %w", err)
	}

	if c.devices != nil {
		n, err = drain(ctx, c, "device_codes", func(ctx context.Context) (int, error) {
			removed, err := c.devices.RemoveExpiredDeviceCodes(ctx, now, c.opts.BatchSize)
			if err != nil {
				return 0, err
			}
			if len(removed) > 0 {
				if nerr := c.notify.DeviceCodesRemoved(ctx, removed); nerr != nil {
					c.logger.Warn("device code removal notification failed", "error", nerr)
				}
			}
			return len(removed), nil
		})
		result.DeviceCodesRemoved = n
		if err != nil {
			return result, fmt.Errorf("failed to remove expired device codes: %w", err)
		}
	}

	if result.GrantsRemoved > 0 || result.DeviceCodesRemoved > 0 {
		c.logger.Info("removed expired records",
			"grants", result.GrantsRemoved,
			"device_codes", result.DeviceCodesRemoved)
	}
	return result, nil
}

// drain calls batch until it returns fewer than BatchSize records. Each
// call is retried with exponential backoff.
func drain(ctx context.Context, c *Cleanup, what string, batch func(context.Context) (int, error)) (int, error) {
	total := 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return total, err
		}

		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.InitialInterval = c.opts.RetryInterval
		expBackoff.MaxInterval = 60 * c.opts.RetryInterval
		expBackoff.Reset()

		n, err := backoff.Retry(ctx, func() (int, error) { return batch(ctx) },
			backoff.WithBackOff(expBackoff),
			backoff.WithMaxTries(uint(c.opts.MaxRetries+1)), // #nosec G115 -- MaxRetries is validated to [0, 10]
			backoff.WithNotify(func(err error, d time.Duration) {
				c.logger.Debug("retrying cleanup batch", "records", what, "after", d.String(), "error", err)
			}),
		)
		if err != nil {
			return total, err
		}
		c.removed.Add(ctx, int64(n), metric.WithAttributes(attribute.String("record", what)))
		total += n
		if n < c.opts.BatchSize {
			return total, nil
		}
	}
}
