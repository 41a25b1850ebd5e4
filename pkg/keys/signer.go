// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnknownKey is returned when a token names a key that is not published.
var ErrUnknownKey = errors.New("unknown signing key")

// Signer signs and verifies JWTs with the managed keys.
type Signer struct {
	manager *Manager
}

// NewSigner creates a Signer backed by m.
func NewSigner(m *Manager) *Signer {
	return &Signer{manager: m}
}

// Sign signs claims with the current default signing key. The key ID is
// set as the kid header.
func (s *Signer) Sign(ctx context.Context, claims jwt.Claims) (string, error) {
	k, err := s.manager.GetCurrentSigningKey(ctx)
	if err != nil {
		return "", err
	}
	method := jwt.GetSigningMethod(k.Algorithm)
	if method == nil {
		return "", fmt.Errorf("no JWT signing method for %s", k.Algorithm)
	}

	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = k.ID
	signed, err := token.SignedString(k.Key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Keyfunc resolves a token's kid to a published validation key. The
// token's algorithm must match the key's.
func (s *Signer) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: token has no kid", ErrUnknownKey)
		}
		keys, err := s.manager.GetValidationKeys(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if k.ID != kid {
				continue
			}
			if token.Method.Alg() != k.Algorithm {
				return nil, fmt.Errorf("token algorithm %s does not match key algorithm %s", token.Method.Alg(), k.Algorithm)
			}
			return k.Key.Public(), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
}

// Parse verifies a token signed by a published key and returns its claims.
func (s *Signer) Parse(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.Keyfunc(ctx), jwt.WithValidMethods(supportedAlgorithms))
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return claims, nil
}
