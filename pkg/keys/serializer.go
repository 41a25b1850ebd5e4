// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/stacklok/tokencore/pkg/protect"
	"github.com/stacklok/tokencore/pkg/storage"
)

// SerializationVersion is the SerializedKey format written by Serializer.
const SerializationVersion = 1

// ErrProtectorRequired is returned when a protected key is read without a
// protector.
var ErrProtectorRequired = errors.New("key data is protected but no protector is configured")

// Serializer converts keys to and from their stored form. Key material is
// sealed when a protector is set.
type Serializer struct {
	protector protect.Protector
}

// NewSerializer creates a Serializer. A nil protector stores keys in clear.
func NewSerializer(protector protect.Protector) *Serializer {
	return &Serializer{protector: protector}
}

// Serialize encodes a key for storage.
func (s *Serializer) Serialize(k *KeyContainer) (storage.SerializedKey, error) {
	data, err := json.Marshal(k.JSONWebKey())
	if err != nil {
		return storage.SerializedKey{}, fmt.Errorf("failed to encode key %s: %w", k.ID, err)
	}

	out := storage.SerializedKey{
		ID:                k.ID,
		Version:           SerializationVersion,
		Created:           k.Created,
		Algorithm:         k.Algorithm,
		IsX509Certificate: k.IsX509Certificate(),
		Data:              string(data),
	}
	if s.protector != nil {
		sealed, err := s.protector.Protect(data)
		if err != nil {
			return storage.SerializedKey{}, fmt.Errorf("failed to protect key %s: %w", k.ID, err)
		}
		out.Data = sealed
		out.DataProtected = true
	}
	return out, nil
}

// Deserialize decodes a stored key.
func (s *Serializer) Deserialize(sk storage.SerializedKey) (*KeyContainer, error) {
	if sk.Version != SerializationVersion {
		return nil, fmt.Errorf("key %s has unsupported version %d", sk.ID, sk.Version)
	}

	data := []byte(sk.Data)
	if sk.DataProtected {
		if s.protector == nil {
			return nil, ErrProtectorRequired
		}
		var err error
		data, err = s.protector.Unprotect(sk.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to unprotect key %s: %w", sk.ID, err)
		}
	}

	var jwk jose.JSONWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("failed to decode key %s: %w", sk.ID, err)
	}

	var signer crypto.Signer
	switch k := jwk.Key.(type) {
	case *rsa.PrivateKey:
		signer = k
	case *ecdsa.PrivateKey:
		signer = k
	default:
		return nil, fmt.Errorf("key %s is not a supported private key: %T", sk.ID, jwk.Key)
	}

	id, err := DeriveKeyID(signer)
	if err != nil {
		return nil, err
	}
	if id != sk.ID {
		return nil, fmt.Errorf("key %s does not match its thumbprint %s", sk.ID, id)
	}
	if err := ValidateAlgorithmForKey(sk.Algorithm, signer); err != nil {
		return nil, err
	}

	kc := &KeyContainer{ID: sk.ID, Algorithm: sk.Algorithm, Created: sk.Created.UTC(), Key: signer}
	if sk.IsX509Certificate && len(jwk.Certificates) > 0 {
		kc.Certificate = jwk.Certificates[0]
	}
	return kc, nil
}
