// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-jose/go-jose/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/stacklok/tokencore/pkg/lock"
	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/storage"
)

const (
	instrumentationName = "github.com/stacklok/tokencore/pkg/keys"
	loadGroupKey        = "keys"
)

var attrAlgorithm = attribute.Key("key.algorithm")

// ErrNoSigningKey is returned when no key can sign for an algorithm.
var ErrNoSigningKey = errors.New("no signing key available")

// KeyStatus is a stored key and its current state.
type KeyStatus struct {
	Key   *KeyContainer
	State State
}

// Manager serves signing and validation keys, rotating them on demand.
// The store is the source of truth. Loaded keys are cached for a bounded time
// and only generation and persistence run under the generation lock.
type Manager struct {
	opts       Options
	store      storage.SigningKeyStore
	cache      StoreCache
	serializer *Serializer
	lock       lock.Lock[KeyGeneration]
	clock      clock.PassiveClock
	logger     *slog.Logger

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	keysCreated    metric.Int64Counter
	keysDeleted    metric.Int64Counter

	loads singleflight.Group
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock sets the clock key ages are measured against.
func WithClock(c clock.PassiveClock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithCache replaces the in-memory key cache.
func WithCache(c StoreCache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

// WithLock sets the key generation lock. Use a NoopLock only when a single
// process manages keys.
func WithLock(l lock.Lock[KeyGeneration]) ManagerOption {
	return func(m *Manager) { m.lock = l }
}

// WithSerializer sets how keys are encoded for the store.
func WithSerializer(s *Serializer) ManagerOption {
	return func(m *Manager) { m.serializer = s }
}

// WithMeterProvider sets the meter provider for key metrics.
func WithMeterProvider(mp metric.MeterProvider) ManagerOption {
	return func(m *Manager) { m.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) ManagerOption {
	return func(m *Manager) { m.tracerProvider = tp }
}

// NewManager creates a Manager over store.
func NewManager(opts Options, store storage.SigningKeyStore, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("signing key store is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid key options: %w", err)
	}

	m := &Manager{
		opts:           opts,
		store:          store,
		serializer:     NewSerializer(nil),
		lock:           lock.NewSemaphoreLock[KeyGeneration](),
		clock:          clock.RealClock{},
		logger:         logger.ForComponent("keys"),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range options {
		o(m)
	}
	if m.cache == nil {
		m.cache = NewMemoryStoreCache(m.clock)
	}

	m.tracer = m.tracerProvider.Tracer(instrumentationName)
	meter := m.meterProvider.Meter(instrumentationName)
	var err error
	m.keysCreated, err = meter.Int64Counter(
		"tokencore_keys_created_total",
		metric.WithDescription("Total number of signing keys created"))
	if err != nil {
		return nil, fmt.Errorf("failed to create keys created counter: %w", err)
	}
	m.keysDeleted, err = meter.Int64Counter(
		"tokencore_keys_deleted_total",
		metric.WithDescription("Total number of retired signing keys deleted"))
	if err != nil {
		return nil, fmt.Errorf("failed to create keys deleted counter: %w", err)
	}
	return m, nil
}

// GetCurrentSigningKey returns the active key for the default algorithm.
func (m *Manager) GetCurrentSigningKey(ctx context.Context) (*KeyContainer, error) {
	keys, err := m.GetCurrentSigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	return keys[0], nil
}

// GetCurrentSigningKeys returns one active key per configured algorithm, in
// configuration order, rotating first when a key is due.
func (m *Manager) GetCurrentSigningKeys(ctx context.Context) ([]*KeyContainer, error) {
	keys, err := m.ensureKeys(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	out := make([]*KeyContainer, 0, len(m.opts.SigningAlgorithms))
	for _, alg := range m.opts.SigningAlgorithms {
		active := activeKey(keys, alg.Name, now, m.opts)
		if active == nil {
			return nil, fmt.Errorf("%w for algorithm %s", ErrNoSigningKey, alg.Name)
		}
		out = append(out, active)
	}
	return out, nil
}

// GetValidationKeys returns every key that has not retired, newest first.
func (m *Manager) GetValidationKeys(ctx context.Context) ([]*KeyContainer, error) {
	keys, err := m.ensureKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(keys)
	slices.SortFunc(out, func(a, b *KeyContainer) int {
		return cmp.Or(b.Created.Compare(a.Created), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// PublicJWKS returns the validation keys as a public key set.
func (m *Manager) PublicJWKS(ctx context.Context) (jose.JSONWebKeySet, error) {
	keys, err := m.GetValidationKeys(ctx)
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(keys))}
	for _, k := range keys {
		set.Keys = append(set.Keys, k.PublicJSONWebKey())
	}
	return set, nil
}

// ListKeys reads every stored key, including retired ones not yet deleted,
// and reports its state. It bypasses the cache.
func (m *Manager) ListKeys(ctx context.Context) ([]KeyStatus, error) {
	keys, err := m.loadFromStore(ctx)
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()
	slices.SortFunc(keys, func(a, b *KeyContainer) int {
		return cmp.Or(a.Created.Compare(b.Created), cmp.Compare(a.ID, b.ID))
	})
	out := make([]KeyStatus, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyStatus{Key: k, State: stateOf(k, keys, now, m.opts)})
	}
	return out, nil
}

// Rotate runs a rotation pass: retired keys are deleted and keys are created
// for algorithms that are due. With force a new key is created for every
// algorithm. It returns the created keys. Nil with a nil error means the lock
// could not be acquired in time.
func (m *Manager) Rotate(ctx context.Context, force bool) ([]*KeyContainer, error) {
	res, err := m.rotate(ctx, force)
	if err != nil {
		return nil, err
	}
	return res.created, nil
}

func (m *Manager) ensureKeys(ctx context.Context) ([]*KeyContainer, error) {
	keys, err := m.loadKeys(ctx)
	if err != nil {
		return nil, err
	}
	if !m.needsRotation(keys, m.clock.Now()) {
		return keys, nil
	}
	res, err := m.rotate(ctx, false)
	if err != nil {
		return nil, err
	}
	return res.keys, nil
}

// loadKeys returns the usable keys from the cache, reloading from the store
// on a miss. Concurrent misses share one store read.
func (m *Manager) loadKeys(ctx context.Context) ([]*KeyContainer, error) {
	if keys, ok := m.cache.GetKeys(ctx); ok {
		return keys, nil
	}

	v, err, _ := m.loads.Do(loadGroupKey, func() (any, error) {
		if keys, ok := m.cache.GetKeys(ctx); ok {
			return keys, nil
		}
		stored, err := m.loadFromStore(ctx)
		if err != nil {
			return nil, err
		}
		now := m.clock.Now()
		usable := withoutRetired(stored, now, m.opts)
		m.cache.StoreKeys(ctx, usable, m.cacheDuration(usable, now))
		return usable, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*KeyContainer), nil
}

func (m *Manager) loadFromStore(ctx context.Context) ([]*KeyContainer, error) {
	serialized, err := m.store.LoadKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	keys := make([]*KeyContainer, 0, len(serialized))
	for _, sk := range serialized {
		k, err := m.serializer.Deserialize(sk)
		if err != nil {
			m.logger.Warn("skipping unreadable signing key", "key_id", sk.ID, "error", err)
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// cacheDuration is shorter while any key is still initializing so that
// other instances converge on a fresh key quickly.
func (m *Manager) cacheDuration(keys []*KeyContainer, now time.Time) time.Duration {
	for _, k := range keys {
		if age(k, now) < m.opts.InitializationDuration {
			return m.opts.InitializationKeyCacheDuration
		}
	}
	return m.opts.KeyCacheDuration
}

func (m *Manager) needsRotation(keys []*KeyContainer, now time.Time) bool {
	for _, alg := range m.opts.SigningAlgorithms {
		if needsRotationFor(keys, alg.Name, now, m.opts) {
			return true
		}
	}
	return false
}

type rotation struct {
	keys    []*KeyContainer
	created []*KeyContainer
}

func (m *Manager) rotate(ctx context.Context, force bool) (res rotation, err error) {
	ctx, span := m.tracer.Start(ctx, "keys.rotate", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	acquired, err := m.lock.Lock(ctx, m.opts.LockTimeout)
	if err != nil {
		return rotation{}, fmt.Errorf("failed to acquire key generation lock: %w", err)
	}
	if !acquired {
		m.logger.Warn("timed out waiting for key generation lock, using stored keys",
			"timeout", m.opts.LockTimeout)
		stored, err := m.loadFromStore(ctx)
		if err != nil {
			return rotation{}, err
		}
		return rotation{keys: withoutRetired(stored, m.clock.Now(), m.opts)}, nil
	}
	defer func() {
		if unlockErr := m.lock.Unlock(); unlockErr != nil {
			m.logger.Error("failed to release key generation lock", "error", unlockErr)
		}
	}()

	// Another caller may have rotated while we waited for the lock.
	stored, err := m.loadFromStore(ctx)
	if err != nil {
		return rotation{}, err
	}
	now := m.clock.Now()

	usable := make([]*KeyContainer, 0, len(stored)+len(m.opts.SigningAlgorithms))
	for _, k := range stored {
		if stateOf(k, stored, now, m.opts) != StateRetired {
			usable = append(usable, k)
			continue
		}
		if err := m.store.DeleteKey(ctx, k.ID); err != nil {
			return rotation{}, fmt.Errorf("failed to delete retired key %s: %w", k.ID, err)
		}
		m.keysDeleted.Add(ctx, 1, metric.WithAttributes(attrAlgorithm.String(k.Algorithm)))
		m.logger.Info("deleted retired signing key", "key_id", k.ID, "algorithm", k.Algorithm)
	}

	var created []*KeyContainer
	for _, alg := range m.opts.SigningAlgorithms {
		if !force && !needsRotationFor(usable, alg.Name, now, m.opts) {
			continue
		}
		k, err := m.createKey(ctx, alg, now)
		if err != nil {
			return rotation{}, err
		}
		usable = append(usable, k)
		created = append(created, k)
	}

	m.cache.Invalidate(ctx)
	return rotation{keys: usable, created: created}, nil
}

func (m *Manager) createKey(ctx context.Context, alg SigningAlgorithmOptions, now time.Time) (*KeyContainer, error) {
	signer, err := GenerateKey(alg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	k, err := NewKeyContainer(signer, alg.Name, now, alg.UseX509Certificate,
		m.opts.RotationInterval+m.opts.RetentionDuration)
	if err != nil {
		return nil, err
	}
	sk, err := m.serializer.Serialize(k)
	if err != nil {
		return nil, err
	}
	if err := m.store.StoreKey(ctx, sk); err != nil {
		return nil, fmt.Errorf("failed to store signing key: %w", err)
	}

	m.keysCreated.Add(ctx, 1, metric.WithAttributes(attrAlgorithm.String(alg.Name)))
	m.logger.Info("created signing key", "key_id", k.ID, "algorithm", k.Algorithm, "x509", k.IsX509Certificate())
	return k, nil
}

// Import stores an externally provided key. The key takes part in rotation
// like a generated one, starting from created.
func (m *Manager) Import(ctx context.Context, k *KeyContainer) error {
	if _, ok := m.opts.algorithm(k.Algorithm); !ok {
		return fmt.Errorf("algorithm %s is not configured", k.Algorithm)
	}
	sk, err := m.serializer.Serialize(k)
	if err != nil {
		return err
	}
	if err := m.store.StoreKey(ctx, sk); err != nil {
		return fmt.Errorf("failed to store signing key: %w", err)
	}
	m.cache.Invalidate(ctx)
	m.keysCreated.Add(ctx, 1, metric.WithAttributes(attrAlgorithm.String(k.Algorithm)))
	return nil
}

func age(k *KeyContainer, now time.Time) time.Duration {
	return max(now.Sub(k.Created), 0)
}

// activeKey picks the signing key for alg: the oldest key that has finished
// propagating and is not retiring, or the oldest non-retiring key when none
// has propagated yet.
func activeKey(keys []*KeyContainer, alg string, now time.Time, opts Options) *KeyContainer {
	var candidates []*KeyContainer
	for _, k := range keys {
		if k.Algorithm == alg && age(k, now) < opts.RotationInterval {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	slices.SortFunc(candidates, func(a, b *KeyContainer) int {
		return cmp.Or(a.Created.Compare(b.Created), cmp.Compare(a.ID, b.ID))
	})
	for _, k := range candidates {
		if age(k, now) >= opts.PropagationTime {
			return k
		}
	}
	return candidates[0]
}

func needsRotationFor(keys []*KeyContainer, alg string, now time.Time, opts Options) bool {
	active := activeKey(keys, alg, now, opts)
	if active == nil {
		return true
	}
	if age(active, now) < opts.RotationInterval-opts.PropagationTime {
		return false
	}
	for _, k := range keys {
		if k.Algorithm == alg && k.Created.After(active.Created) {
			return false
		}
	}
	return true
}

func stateOf(k *KeyContainer, keys []*KeyContainer, now time.Time, opts Options) State {
	a := age(k, now)
	switch {
	case a >= opts.RotationInterval+opts.RetentionDuration:
		return StateRetired
	case a >= opts.RotationInterval:
		return StateRetiring
	}
	if active := activeKey(keys, k.Algorithm, now, opts); active != nil && active.ID == k.ID {
		return StateActive
	}
	return StateGenerated
}

func withoutRetired(keys []*KeyContainer, now time.Time, opts Options) []*KeyContainer {
	out := make([]*KeyContainer, 0, len(keys))
	for _, k := range keys {
		if age(k, now) < opts.RotationInterval+opts.RetentionDuration {
			out = append(out, k)
		}
	}
	return out
}
