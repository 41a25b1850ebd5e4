// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// Thumbprint returns the base64url RFC 7638 SHA-256 thumbprint of key.
func Thumbprint(key *jose.JSONWebKey) (string, error) {
	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute JWK thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// ReplayKey derives the replay cache key for a proof from the key thumbprint
// and the proof's jti.
func ReplayKey(thumbprint, jti string) string {
	return hashString(thumbprint + "|" + jti)
}

// AccessTokenHash returns the ath value for an access token.
func AccessTokenHash(accessToken string) string {
	return hashString(accessToken)
}

// Confirmation returns the cnf claim JSON binding a token to thumbprint.
func Confirmation(thumbprint string) string {
	// json.Marshal cannot fail on a map of strings.
	b, _ := json.Marshal(map[string]string{"jkt": thumbprint})
	return string(b)
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
