// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"net/url"
	"time"
)

// Persisted grant types.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeReferenceToken    = "reference_token"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeUserConsent       = "user_consent"
	GrantTypeBackChannelAuth   = "ciba"
)

// SerializedKey is the durable form of a signing key.
type SerializedKey struct {
	// ID is the key identifier (RFC 7638 thumbprint).
	ID string `json:"id"`

	// Version of the serialization format.
	Version int `json:"version"`

	// Created is when the key was generated. Rotation state derives from it.
	Created time.Time `json:"created"`

	// Algorithm is the JWS algorithm the key signs with.
	Algorithm string `json:"algorithm"`

	// IsX509Certificate marks keys published with an x5c chain.
	IsX509Certificate bool `json:"x509_certificate"`

	// Data is the private JWK JSON, sealed when DataProtected is set.
	Data string `json:"data"`

	// DataProtected reports whether Data is sealed by a data protector.
	DataProtected bool `json:"data_protected"`
}

// PushedAuthorizationRequest is a stored pushed authorization request.
// Only a hash of the reference value is persisted.
type PushedAuthorizationRequest struct {
	ReferenceValueHash string
	ExpiresAtUTC       time.Time
	Parameters         url.Values
}

// PersistedGrant is a durable record of an issued artifact such as a
// refresh token, reference token, authorization code or consent.
type PersistedGrant struct {
	Key          string
	Type         string
	SubjectID    string
	SessionID    string
	ClientID     string
	Description  string
	CreationTime time.Time
	// Expiration is nil for grants that never expire.
	Expiration *time.Time
	// ConsumedTime is set once a one-time grant has been used.
	ConsumedTime *time.Time
	Data         string
}

// IsExpired reports whether the grant has an expiration at or before now.
func (g *PersistedGrant) IsExpired(now time.Time) bool {
	return g.Expiration != nil && !g.Expiration.After(now)
}

// DeviceCode is a pending device authorization.
type DeviceCode struct {
	DeviceCode   string
	UserCode     string
	SubjectID    string
	SessionID    string
	ClientID     string
	Description  string
	CreationTime time.Time
	Expiration   time.Time
	Data         string
}

// ServerSideSession is a user session kept on the server.
type ServerSideSession struct {
	Key         string
	Scheme      string
	SubjectID   string
	SessionID   string
	DisplayName string
	Created     time.Time
	Renewed     time.Time
	// Expires is nil for sessions without an absolute lifetime.
	Expires *time.Time
	Ticket  string
}
