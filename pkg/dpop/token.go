// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"fmt"
	"net/http"
	"strings"
)

// Header names and authorization schemes.
const (
	HeaderName   = "DPoP"
	SchemeDPoP   = "DPoP"
	SchemeBearer = "Bearer"
)

// RetrievalErrorKind classifies why a token could not be read from a request.
type RetrievalErrorKind int

// Retrieval error kinds.
const (
	// KindNoTokenReturned means the request carried no access token.
	KindNoTokenReturned RetrievalErrorKind = iota
	// KindMissingDPoP means a DPoP-bound token arrived without exactly one proof.
	KindMissingDPoP
	// KindUnexpectedToken means the token or scheme was not acceptable.
	KindUnexpectedToken
)

func (k RetrievalErrorKind) String() string {
	switch k {
	case KindNoTokenReturned:
		return "no_token_returned"
	case KindMissingDPoP:
		return "missing_dpop"
	case KindUnexpectedToken:
		return "unexpected_token"
	default:
		return fmt.Sprintf("RetrievalErrorKind(%d)", int(k))
	}
}

// RetrievalError is returned by TokenFromHeader.
type RetrievalError struct {
	Kind    RetrievalErrorKind
	Message string
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// TokenRequest is an access token and its proof, read from request headers.
type TokenRequest struct {
	Scheme      string
	AccessToken string
	// Proof is empty for bearer tokens.
	Proof string
}

// TokenFromHeader reads the Authorization and DPoP headers. A DPoP scheme
// token requires exactly one proof. A bearer token must not carry one.
func TokenFromHeader(h http.Header) (*TokenRequest, error) {
	authz := strings.TrimSpace(h.Get("Authorization"))
	if authz == "" {
		return nil, &RetrievalError{Kind: KindNoTokenReturned, Message: "authorization header is missing"}
	}

	scheme, token, ok := strings.Cut(authz, " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, &RetrievalError{Kind: KindNoTokenReturned, Message: "authorization header has no token"}
	}

	proofs := h.Values(HeaderName)
	switch {
	case strings.EqualFold(scheme, SchemeDPoP):
		if len(proofs) != 1 || strings.TrimSpace(proofs[0]) == "" {
			return nil, &RetrievalError{
				Kind:    KindMissingDPoP,
				Message: fmt.Sprintf("expected exactly one %s header, got %d", HeaderName, len(proofs)),
			}
		}
		return &TokenRequest{Scheme: SchemeDPoP, AccessToken: token, Proof: strings.TrimSpace(proofs[0])}, nil
	case strings.EqualFold(scheme, SchemeBearer):
		if len(proofs) > 0 {
			return nil, &RetrievalError{Kind: KindUnexpectedToken, Message: "bearer token presented with a DPoP proof"}
		}
		return &TokenRequest{Scheme: SchemeBearer, AccessToken: token}, nil
	default:
		return nil, &RetrievalError{Kind: KindUnexpectedToken, Message: fmt.Sprintf("unsupported authorization scheme %q", scheme)}
	}
}
