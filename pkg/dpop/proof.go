// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"crypto"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// JWTType is the required typ header of a proof.
const JWTType = "dpop+jwt"

// ProofClaims are the claims of a proof to mint.
type ProofClaims struct {
	ID          string
	Method      string
	URL         string
	IssuedAt    time.Time
	AccessToken string
	Nonce       string
	// Extra claims are added as-is. They must not collide with the above.
	Extra map[string]string
}

// NewProof signs claims with key, embedding its public JWK.
func NewProof(key crypto.Signer, alg jose.SignatureAlgorithm, claims ProofClaims) (string, error) {
	opts := (&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: key}, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create proof signer: %w", err)
	}

	payload := map[string]any{}
	for k, v := range claims.Extra {
		payload[k] = v
	}
	payload["jti"] = claims.ID
	payload["htm"] = claims.Method
	payload["htu"] = claims.URL
	payload["iat"] = claims.IssuedAt.Unix()
	if claims.AccessToken != "" {
		payload["ath"] = AccessTokenHash(claims.AccessToken)
	}
	if claims.Nonce != "" {
		payload["nonce"] = claims.Nonce
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode proof claims: %w", err)
	}
	jws, err := signer.Sign(body)
	if err != nil {
		return "", fmt.Errorf("failed to sign proof: %w", err)
	}
	return jws.CompactSerialize()
}
