// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package storage provides the durable store interfaces and the in-memory,
// Redis and file implementations used by tokencore. The SQLite
// implementation lives in the sqlite sub-package.
package storage

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=interfaces.go SigningKeyStore,PushedAuthorizationRequestStore,PersistedGrantStore,DeviceFlowStore,ServerSideSessionStore,OperationalStoreNotification

// SigningKeyStore persists signing keys. It is the source of truth for the
// key manager; caches sit in front of it.
type SigningKeyStore interface {
	// LoadKeys returns every stored key. Order is unspecified.
	LoadKeys(ctx context.Context) ([]SerializedKey, error)
	// StoreKey persists a key. Storing an existing ID overwrites it.
	StoreKey(ctx context.Context, key SerializedKey) error
	// DeleteKey removes a key. Deleting a missing key is not an error.
	DeleteKey(ctx context.Context, id string) error
}

// PushedAuthorizationRequestStore persists pushed authorization requests
// keyed by the hash of their reference value. Expiry is enforced by callers.
type PushedAuthorizationRequestStore interface {
	StorePushedAuthorizationRequest(ctx context.Context, req *PushedAuthorizationRequest) error
	// GetPushedAuthorizationRequest returns ErrNotFound when no request is stored.
	GetPushedAuthorizationRequest(ctx context.Context, referenceValueHash string) (*PushedAuthorizationRequest, error)
	// ConsumePushedAuthorizationRequest atomically returns and removes a request.
	ConsumePushedAuthorizationRequest(ctx context.Context, referenceValueHash string) (*PushedAuthorizationRequest, error)
}

// PersistedGrantStore persists grants. Methods taking a filter return
// ErrInvalidFilter for an empty filter.
type PersistedGrantStore interface {
	StoreGrant(ctx context.Context, grant *PersistedGrant) error
	// GetGrant returns ErrNotFound when no grant has the key.
	GetGrant(ctx context.Context, key string) (*PersistedGrant, error)
	GetAllGrants(ctx context.Context, filter PersistedGrantFilter) ([]*PersistedGrant, error)
	RemoveGrant(ctx context.Context, key string) error
	RemoveAllGrants(ctx context.Context, filter PersistedGrantFilter) error
	// RemoveExpiredGrants removes at most batchSize grants expired at now
	// and returns the removed records.
	RemoveExpiredGrants(ctx context.Context, now time.Time, batchSize int) ([]PersistedGrant, error)
}

// DeviceFlowStore persists device authorizations.
type DeviceFlowStore interface {
	StoreDeviceAuthorization(ctx context.Context, code *DeviceCode) error
	FindByUserCode(ctx context.Context, userCode string) (*DeviceCode, error)
	FindByDeviceCode(ctx context.Context, deviceCode string) (*DeviceCode, error)
	RemoveByDeviceCode(ctx context.Context, deviceCode string) error
	// RemoveExpiredDeviceCodes removes at most batchSize codes expired at
	// now and returns the removed records.
	RemoveExpiredDeviceCodes(ctx context.Context, now time.Time, batchSize int) ([]DeviceCode, error)
}

// ServerSideSessionStore persists server-side sessions.
type ServerSideSessionStore interface {
	CreateSession(ctx context.Context, session *ServerSideSession) error
	GetSession(ctx context.Context, key string) (*ServerSideSession, error)
	GetSessions(ctx context.Context, filter SessionFilter) ([]*ServerSideSession, error)
	DeleteSessions(ctx context.Context, filter SessionFilter) error
}

// OperationalStoreNotification receives batches removed by token cleanup.
// Callers log returned errors and carry on.
type OperationalStoreNotification interface {
	PersistedGrantsRemoved(ctx context.Context, grants []PersistedGrant) error
	DeviceCodesRemoved(ctx context.Context, codes []DeviceCode) error
}
