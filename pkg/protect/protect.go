// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package protect seals small payloads, such as private signing keys at rest
// and server-issued DPoP nonces, as compact JWE (dir + A256GCM).
//
// Each Protector is bound to a purpose string carried in the protected
// header, so a value sealed for one purpose cannot be unsealed for another.
// Several keys can be configured to allow key rotation: the first seals,
// all of them unseal.
package protect

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

//go:generate mockgen -destination=mocks/mock_protect.go -package=mocks -source=protect.go Protector

// KeySize is the required key length in bytes.
const KeySize = 32

const purposeHeader jose.HeaderKey = "purpose"

var (
	// ErrInvalidKey is returned for keys that are not KeySize bytes.
	ErrInvalidKey = errors.New("protection key must be 32 bytes")

	// ErrUnprotect is returned when a value cannot be unsealed.
	ErrUnprotect = errors.New("failed to unprotect data")
)

// Protector seals and unseals data.
type Protector interface {
	Protect(plaintext []byte) (string, error)
	Unprotect(protected string) ([]byte, error)
}

// JWEProtector implements Protector with go-jose.
type JWEProtector struct {
	purpose   string
	encrypter jose.Encrypter
	keys      map[string][]byte
}

var _ Protector = (*JWEProtector)(nil)

// New returns a JWEProtector for purpose. keys[0] seals; every key unseals.
func New(purpose string, keys ...[]byte) (*JWEProtector, error) {
	if purpose == "" {
		return nil, errors.New("purpose is required")
	}
	if len(keys) == 0 {
		return nil, errors.New("at least one protection key is required")
	}

	ring := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if len(k) != KeySize {
			return nil, ErrInvalidKey
		}
		ring[keyID(k)] = k
	}

	opts := (&jose.EncrypterOptions{}).WithHeader(purposeHeader, purpose)
	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{
		Algorithm: jose.DIRECT,
		Key:       keys[0],
		KeyID:     keyID(keys[0]),
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypter: %w", err)
	}

	return &JWEProtector{purpose: purpose, encrypter: enc, keys: ring}, nil
}

// Protect seals plaintext.
func (p *JWEProtector) Protect(plaintext []byte) (string, error) {
	obj, err := p.encrypter.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	out, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}
	return out, nil
}

// Unprotect unseals a value produced by a Protector with the same purpose
// and one of the configured keys.
func (p *JWEProtector) Unprotect(protected string) ([]byte, error) {
	obj, err := jose.ParseEncryptedCompact(protected,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnprotect, err)
	}
	if purpose, _ := obj.Header.ExtraHeaders[purposeHeader].(string); purpose != p.purpose {
		return nil, fmt.Errorf("%w: purpose mismatch", ErrUnprotect)
	}
	key, ok := p.keys[obj.Header.KeyID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown key", ErrUnprotect)
	}
	plaintext, err := obj.Decrypt(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnprotect, err)
	}
	return plaintext, nil
}

// GenerateKey returns a new random protection key.
func GenerateKey() ([]byte, error) {
	k := make([]byte, KeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("failed to generate protection key: %w", err)
	}
	return k, nil
}

// DecodeKey parses a base64 (standard or URL alphabet, padded or not) key.
func DecodeKey(encoded string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if k, err := enc.DecodeString(encoded); err == nil {
			if len(k) != KeySize {
				return nil, ErrInvalidKey
			}
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrInvalidKey)
}

// keyID names a key without revealing it.
func keyID(key []byte) string {
	sum := sha256.Sum256(key)
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
