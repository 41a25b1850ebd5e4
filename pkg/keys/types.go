// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package keys manages the lifecycle of token signing keys.
// Keys are created ahead of use so validators can pick them up, sign while
// active, stay published while retiring, and are deleted once retired.
package keys

import (
	"crypto"
	"crypto/x509"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// State is the lifecycle position of a key at a point in time.
type State int

// Key states, in lifecycle order.
const (
	// StateGenerated keys are published for validation but do not sign yet.
	StateGenerated State = iota
	// StateActive is the single key per algorithm used to sign.
	StateActive
	// StateRetiring keys no longer sign but still validate.
	StateRetiring
	// StateRetired keys are past retention and get deleted.
	StateRetired
)

func (s State) String() string {
	switch s {
	case StateGenerated:
		return "generated"
	case StateActive:
		return "active"
	case StateRetiring:
		return "retiring"
	case StateRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// KeyContainer is a decoded signing key with its metadata.
// It holds private key material and must not be exposed externally.
type KeyContainer struct {
	// ID is the RFC 7638 thumbprint of the public key.
	ID string

	// Algorithm is the JWS algorithm, e.g. "RS256".
	Algorithm string

	// Created drives the key's State.
	Created time.Time

	// Key is the private key.
	Key crypto.Signer

	// Certificate is a self-signed certificate for the key, published as
	// x5c. Nil unless the algorithm is configured to use one.
	Certificate *x509.Certificate
}

// IsX509Certificate reports whether the key is published with a certificate.
func (k *KeyContainer) IsX509Certificate() bool {
	return k.Certificate != nil
}

// JSONWebKey returns the private JWK for the key.
func (k *KeyContainer) JSONWebKey() jose.JSONWebKey {
	jwk := jose.JSONWebKey{
		Key:       k.Key,
		KeyID:     k.ID,
		Algorithm: k.Algorithm,
		Use:       "sig",
	}
	if k.Certificate != nil {
		jwk.Certificates = []*x509.Certificate{k.Certificate}
	}
	return jwk
}

// PublicJSONWebKey returns the public JWK safe to publish.
func (k *KeyContainer) PublicJSONWebKey() jose.JSONWebKey {
	jwk := k.JSONWebKey()
	jwk.Key = k.Key.Public()
	return jwk
}

// KeyGeneration is the resource type guarded while keys are generated.
type KeyGeneration struct{}
