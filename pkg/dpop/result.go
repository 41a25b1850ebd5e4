// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"net/http"
	"time"

	"github.com/ory/fosite"
)

// Error codes.
const (
	ErrorInvalidProof = "invalid_dpop_proof"
	ErrorUseNonce     = "use_dpop_nonce"
)

// Error descriptions.
const (
	DescMalformed        = "Malformed DPoP token."
	DescInvalidTyp       = "Invalid 'typ' value."
	DescInvalidAlg       = "Invalid 'alg' value."
	DescInvalidJWK       = "Invalid 'jwk' value."
	DescInvalidSignature = "Invalid signature on DPoP token."
	DescInvalidJti       = "Invalid 'jti' value."
	DescInvalidHtm       = "Invalid 'htm' value."
	DescInvalidHtu       = "Invalid 'htu' value."
	DescMissingIat       = "Missing 'iat' value."
	DescInvalidIat       = "Invalid 'iat' value."
	DescIatNotYetValid   = "Invalid 'iat' value: not yet valid."
	DescIatExpired       = "Invalid 'iat' value: expired."
	DescMissingAth       = "Missing 'ath' value."
	DescInvalidAth       = "Invalid 'ath' value."
	DescMissingNonce     = "Missing 'nonce' value."
	DescInvalidNonce     = "Invalid 'nonce' value."
	DescReplay           = "Detected DPoP proof token replay."
)

// Claim is one payload member, kept in document order.
type Claim struct {
	Name  string
	Value any
}

// Result is the outcome of validating one proof. Fields other than the
// error fields are set only on success, except ServerIssuedNonce which
// accompanies nonce errors.
type Result struct {
	IsError          bool
	Error            string
	ErrorDescription string

	// JSONWebKey is the proof's public key as JWK JSON.
	JSONWebKey string
	// JSONWebKeyThumbprint is the RFC 7638 SHA-256 thumbprint of JSONWebKey.
	JSONWebKeyThumbprint string
	// Confirmation is the cnf claim value binding a token to the key.
	Confirmation string
	Payload      []Claim
	// TokenIDHash is the base64url SHA-256 of jti.
	TokenIDHash string
	// AccessTokenHash is the validated ath claim.
	AccessTokenHash string
	Nonce           string
	IssuedAt        time.Time
	// ServerIssuedNonce is a fresh nonce for the client to retry with.
	ServerIssuedNonce string
}

// Claim returns the value of the named payload claim.
func (r *Result) Claim(name string) (any, bool) {
	for _, c := range r.Payload {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// RFC6749Error converts a failed result into a fosite error that token and
// resource endpoints can write unchanged. It returns nil for a success.
func (r *Result) RFC6749Error() *fosite.RFC6749Error {
	if r == nil || !r.IsError {
		return nil
	}
	return &fosite.RFC6749Error{
		ErrorField:       r.Error,
		DescriptionField: r.ErrorDescription,
		CodeField:        http.StatusBadRequest,
	}
}

func failure(code, description string) *Result {
	return &Result{IsError: true, Error: code, ErrorDescription: description}
}
