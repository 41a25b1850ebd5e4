// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// Defaults for Options.
const (
	DefaultProofTokenValidityDuration = time.Minute
	DefaultClientClockSkew            = 5 * time.Minute
	DefaultServerClockSkew            = 0
)

// SupportedAlgorithms are the asymmetric JWS algorithms a proof may use.
var SupportedAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
}

// Options controls proof validation policy.
type Options struct {
	// ValidateIat enables the issued-at window check.
	ValidateIat bool

	// ValidateNonce requires a nonce claim matching the expected or a
	// server-issued nonce.
	ValidateNonce bool

	// ProofTokenValidityDuration is how long after iat a proof is accepted.
	ProofTokenValidityDuration time.Duration

	// ClientClockSkew tolerates client clocks running ahead of ours.
	ClientClockSkew time.Duration

	// ServerClockSkew extends the validity window for clocks running behind.
	ServerClockSkew time.Duration

	// SupportedAlgorithms restricts proof algorithms further. Empty means
	// every algorithm in the package-level SupportedAlgorithms.
	SupportedAlgorithms []jose.SignatureAlgorithm
}

// DefaultOptions returns the default validation policy.
func DefaultOptions() Options {
	return Options{
		ValidateIat:                true,
		ValidateNonce:              false,
		ProofTokenValidityDuration: DefaultProofTokenValidityDuration,
		ClientClockSkew:            DefaultClientClockSkew,
		ServerClockSkew:            DefaultServerClockSkew,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if o.ProofTokenValidityDuration <= 0 {
		return errors.New("proof token validity duration must be positive")
	}
	if o.ClientClockSkew < 0 {
		return errors.New("client clock skew must not be negative")
	}
	if o.ServerClockSkew < 0 {
		return errors.New("server clock skew must not be negative")
	}
	for _, alg := range o.SupportedAlgorithms {
		if !slices.Contains(SupportedAlgorithms, alg) {
			return fmt.Errorf("unsupported proof algorithm %q", alg)
		}
	}
	return nil
}

// ReplayWindow is how long a proof ID must be remembered: the longest span
// during which the same proof would still pass the iat check.
func (o Options) ReplayWindow() time.Duration {
	return o.ProofTokenValidityDuration + o.ServerClockSkew + o.ClientClockSkew
}

func (o Options) allowedAlgorithms() []jose.SignatureAlgorithm {
	if len(o.SupportedAlgorithms) == 0 {
		return SupportedAlgorithms
	}
	return o.SupportedAlgorithms
}
