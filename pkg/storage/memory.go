// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// timedEntry wraps a value with its creation time for TTL tracking.
type timedEntry[T any] struct {
	value     T
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStorage implements every store interface with in-memory maps.
// It is safe for concurrent use and suitable for single-instance
// deployments and tests.
//
// Pushed authorization requests and expired sessions are swept by a
// background loop. Expired grants and device codes are left in place for
// token cleanup, which reports what it removes.
type MemoryStorage struct {
	mu sync.RWMutex

	clock clock.PassiveClock

	// keys maps key ID -> serialized signing key.
	keys map[string]SerializedKey

	// pars maps reference value hash -> request.
	pars map[string]*timedEntry[*PushedAuthorizationRequest]

	// grants maps grant key -> grant.
	grants map[string]*PersistedGrant

	// deviceCodes maps device code -> device authorization; userCodes
	// indexes the same records by user code.
	deviceCodes map[string]*DeviceCode
	userCodes   map[string]string

	// sessions maps session key -> session.
	sessions map[string]*ServerSideSession

	// cleanupInterval is how often the background cleanup runs
	cleanupInterval time.Duration

	// stopCleanup is used to signal the cleanup goroutine to stop
	stopCleanup chan struct{}

	// cleanupDone is closed when the cleanup goroutine has fully stopped
	cleanupDone chan struct{}
	closeOnce   sync.Once
}

var (
	_ SigningKeyStore                 = (*MemoryStorage)(nil)
	_ PushedAuthorizationRequestStore = (*MemoryStorage)(nil)
	_ PersistedGrantStore             = (*MemoryStorage)(nil)
	_ DeviceFlowStore                 = (*MemoryStorage)(nil)
	_ ServerSideSessionStore          = (*MemoryStorage)(nil)
)

// MemoryStorageOption configures a MemoryStorage instance.
type MemoryStorageOption func(*MemoryStorage)

// WithCleanupInterval sets a custom cleanup interval.
func WithCleanupInterval(interval time.Duration) MemoryStorageOption {
	return func(s *MemoryStorage) {
		s.cleanupInterval = interval
	}
}

// WithClock sets the clock used to decide expiry during cleanup.
func WithClock(c clock.PassiveClock) MemoryStorageOption {
	return func(s *MemoryStorage) {
		s.clock = c
	}
}

// NewMemoryStorage creates a new MemoryStorage instance with initialized maps
// and starts the background cleanup goroutine.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	s := &MemoryStorage{
		clock:           clock.RealClock{},
		keys:            make(map[string]SerializedKey),
		pars:            make(map[string]*timedEntry[*PushedAuthorizationRequest]),
		grants:          make(map[string]*PersistedGrant),
		deviceCodes:     make(map[string]*DeviceCode),
		userCodes:       make(map[string]string),
		sessions:        make(map[string]*ServerSideSession),
		cleanupInterval: DefaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Close stops the background cleanup goroutine and waits for it to finish.
func (s *MemoryStorage) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)
		<-s.cleanupDone
	})
	return nil
}

func (s *MemoryStorage) cleanupLoop() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired drops expired pushed authorization requests and sessions.
// Keys are collected under the read lock and deleted under the write lock.
func (s *MemoryStorage) cleanupExpired() {
	now := s.clock.Now()

	s.mu.RLock()
	var expiredPARs []string
	for k, v := range s.pars {
		if !v.expiresAt.After(now) {
			expiredPARs = append(expiredPARs, k)
		}
	}
	var expiredSessions []string
	for k, v := range s.sessions {
		if v.Expires != nil && !v.Expires.After(now) {
			expiredSessions = append(expiredSessions, k)
		}
	}
	s.mu.RUnlock()

	if len(expiredPARs) == 0 && len(expiredSessions) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range expiredPARs {
		// re-check: the entry may have been replaced since the scan
		if e, ok := s.pars[k]; ok && !e.expiresAt.After(now) {
			delete(s.pars, k)
		}
	}
	for _, k := range expiredSessions {
		if v, ok := s.sessions[k]; ok && v.Expires != nil && !v.Expires.After(now) {
			delete(s.sessions, k)
		}
	}
}

// -----------------------
// SigningKeyStore
// -----------------------

// LoadKeys returns every stored key.
func (s *MemoryStorage) LoadKeys(_ context.Context) ([]SerializedKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.keys)), nil
}

// StoreKey persists a key, overwriting any key with the same ID.
func (s *MemoryStorage) StoreKey(_ context.Context, key SerializedKey) error {
	if key.ID == "" {
		return fmt.Errorf("key id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = key
	return nil
}

// DeleteKey removes a key.
func (s *MemoryStorage) DeleteKey(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
	return nil
}

// -----------------------
// PushedAuthorizationRequestStore
// -----------------------

// StorePushedAuthorizationRequest stores a request under its reference hash.
func (s *MemoryStorage) StorePushedAuthorizationRequest(_ context.Context, req *PushedAuthorizationRequest) error {
	if req == nil || req.ReferenceValueHash == "" {
		return fmt.Errorf("pushed authorization request with reference hash is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pars[req.ReferenceValueHash]; exists {
		return fmt.Errorf("%w: pushed authorization request", ErrAlreadyExists)
	}
	s.pars[req.ReferenceValueHash] = &timedEntry[*PushedAuthorizationRequest]{
		value:     clonePAR(req),
		createdAt: s.clock.Now(),
		expiresAt: req.ExpiresAtUTC,
	}
	return nil
}

// GetPushedAuthorizationRequest returns the stored request, expired or not.
func (s *MemoryStorage) GetPushedAuthorizationRequest(
	_ context.Context, referenceValueHash string,
) (*PushedAuthorizationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.pars[referenceValueHash]
	if !ok {
		return nil, fmt.Errorf("%w: pushed authorization request", ErrNotFound)
	}
	return clonePAR(entry.value), nil
}

// ConsumePushedAuthorizationRequest returns and removes the stored request.
func (s *MemoryStorage) ConsumePushedAuthorizationRequest(
	_ context.Context, referenceValueHash string,
) (*PushedAuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pars[referenceValueHash]
	if !ok {
		return nil, fmt.Errorf("%w: pushed authorization request", ErrNotFound)
	}
	delete(s.pars, referenceValueHash)
	return entry.value, nil
}

func clonePAR(req *PushedAuthorizationRequest) *PushedAuthorizationRequest {
	return &PushedAuthorizationRequest{
		ReferenceValueHash: req.ReferenceValueHash,
		ExpiresAtUTC:       req.ExpiresAtUTC,
		Parameters:         cloneValues(req.Parameters),
	}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = slices.Clone(vals)
	}
	return out
}

// -----------------------
// PersistedGrantStore
// -----------------------

// StoreGrant inserts or replaces a grant.
func (s *MemoryStorage) StoreGrant(_ context.Context, grant *PersistedGrant) error {
	if grant == nil || grant.Key == "" {
		return fmt.Errorf("grant key is required")
	}
	g := *grant
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.Key] = &g
	return nil
}

// GetGrant returns a grant by key.
func (s *MemoryStorage) GetGrant(_ context.Context, key string) (*PersistedGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[key]
	if !ok {
		return nil, fmt.Errorf("%w: grant", ErrNotFound)
	}
	out := *g
	return &out, nil
}

// GetAllGrants returns the grants matching filter.
func (s *MemoryStorage) GetAllGrants(_ context.Context, filter PersistedGrantFilter) ([]*PersistedGrant, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*PersistedGrant
	for _, g := range s.grants {
		if filter.Matches(g) {
			c := *g
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *PersistedGrant) int { return a.CreationTime.Compare(b.CreationTime) })
	return out, nil
}

// RemoveGrant removes a grant by key. Removing a missing grant is not an error.
func (s *MemoryStorage) RemoveGrant(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, key)
	return nil
}

// RemoveAllGrants removes the grants matching filter.
func (s *MemoryStorage) RemoveAllGrants(_ context.Context, filter PersistedGrantFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, g := range s.grants {
		if filter.Matches(g) {
			delete(s.grants, k)
		}
	}
	return nil
}

// RemoveExpiredGrants removes up to batchSize grants expired at now, oldest
// expiration first. A non-positive batchSize removes all of them.
func (s *MemoryStorage) RemoveExpiredGrants(_ context.Context, now time.Time, batchSize int) ([]PersistedGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*PersistedGrant
	for _, g := range s.grants {
		if g.IsExpired(now) {
			expired = append(expired, g)
		}
	}
	slices.SortFunc(expired, func(a, b *PersistedGrant) int { return a.Expiration.Compare(*b.Expiration) })
	if batchSize > 0 && len(expired) > batchSize {
		expired = expired[:batchSize]
	}

	removed := make([]PersistedGrant, 0, len(expired))
	for _, g := range expired {
		delete(s.grants, g.Key)
		removed = append(removed, *g)
	}
	return removed, nil
}

// -----------------------
// DeviceFlowStore
// -----------------------

// StoreDeviceAuthorization stores a device authorization. Both the device
// code and the user code must be unused.
func (s *MemoryStorage) StoreDeviceAuthorization(_ context.Context, code *DeviceCode) error {
	if code == nil || code.DeviceCode == "" || code.UserCode == "" {
		return fmt.Errorf("device code and user code are required")
	}
	c := *code
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.deviceCodes[c.DeviceCode]; exists {
		return fmt.Errorf("%w: device code", ErrAlreadyExists)
	}
	if _, exists := s.userCodes[c.UserCode]; exists {
		return fmt.Errorf("%w: user code", ErrAlreadyExists)
	}
	s.deviceCodes[c.DeviceCode] = &c
	s.userCodes[c.UserCode] = c.DeviceCode
	return nil
}

// FindByUserCode returns a device authorization by user code.
func (s *MemoryStorage) FindByUserCode(_ context.Context, userCode string) (*DeviceCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deviceCode, ok := s.userCodes[userCode]
	if !ok {
		return nil, fmt.Errorf("%w: user code", ErrNotFound)
	}
	out := *s.deviceCodes[deviceCode]
	return &out, nil
}

// FindByDeviceCode returns a device authorization by device code.
func (s *MemoryStorage) FindByDeviceCode(_ context.Context, deviceCode string) (*DeviceCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.deviceCodes[deviceCode]
	if !ok {
		return nil, fmt.Errorf("%w: device code", ErrNotFound)
	}
	out := *c
	return &out, nil
}

// RemoveByDeviceCode removes a device authorization.
func (s *MemoryStorage) RemoveByDeviceCode(_ context.Context, deviceCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.deviceCodes[deviceCode]; ok {
		delete(s.userCodes, c.UserCode)
		delete(s.deviceCodes, deviceCode)
	}
	return nil
}

// RemoveExpiredDeviceCodes removes up to batchSize device codes expired at
// now. A non-positive batchSize removes all of them.
func (s *MemoryStorage) RemoveExpiredDeviceCodes(_ context.Context, now time.Time, batchSize int) ([]DeviceCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*DeviceCode
	for _, c := range s.deviceCodes {
		if !c.Expiration.After(now) {
			expired = append(expired, c)
		}
	}
	slices.SortFunc(expired, func(a, b *DeviceCode) int { return a.Expiration.Compare(b.Expiration) })
	if batchSize > 0 && len(expired) > batchSize {
		expired = expired[:batchSize]
	}

	removed := make([]DeviceCode, 0, len(expired))
	for _, c := range expired {
		delete(s.userCodes, c.UserCode)
		delete(s.deviceCodes, c.DeviceCode)
		removed = append(removed, *c)
	}
	return removed, nil
}

// -----------------------
// ServerSideSessionStore
// -----------------------

// CreateSession stores a new session.
func (s *MemoryStorage) CreateSession(_ context.Context, session *ServerSideSession) error {
	if session == nil || session.Key == "" {
		return fmt.Errorf("session key is required")
	}
	c := *session
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[c.Key]; exists {
		return fmt.Errorf("%w: session", ErrAlreadyExists)
	}
	s.sessions[c.Key] = &c
	return nil
}

// GetSession returns a session by key.
func (s *MemoryStorage) GetSession(_ context.Context, key string) (*ServerSideSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	out := *v
	return &out, nil
}

// GetSessions returns the sessions matching filter.
func (s *MemoryStorage) GetSessions(_ context.Context, filter SessionFilter) ([]*ServerSideSession, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ServerSideSession
	for _, v := range s.sessions {
		if filter.Matches(v) {
			c := *v
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *ServerSideSession) int { return a.Created.Compare(b.Created) })
	return out, nil
}

// DeleteSessions removes the sessions matching filter.
func (s *MemoryStorage) DeleteSessions(_ context.Context, filter SessionFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.sessions {
		if filter.Matches(v) {
			delete(s.sessions, k)
		}
	}
	return nil
}
