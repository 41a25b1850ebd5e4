// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"fmt"
	"strconv"

	"k8s.io/utils/clock"

	"github.com/stacklok/tokencore/pkg/protect"
)

// noncePurpose separates nonces from other protected payloads.
const noncePurpose = "dpop-nonce"

// NonceIssuer creates and checks stateless server nonces. A nonce is the
// issue time sealed with a Protector, so any instance sharing the key can
// validate it.
type NonceIssuer struct {
	protector protect.Protector
	clock     clock.PassiveClock
	opts      Options
}

// NewNonceIssuer creates a NonceIssuer. Freshness uses the same window as iat.
func NewNonceIssuer(protector protect.Protector, clk clock.PassiveClock, opts Options) *NonceIssuer {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &NonceIssuer{protector: protector, clock: clk, opts: opts}
}

// NewNonceIssuerFromKeys creates a NonceIssuer sealing with a JWE protector
// over the given 32-byte keys. The first key seals.
func NewNonceIssuerFromKeys(clk clock.PassiveClock, opts Options, keys ...[]byte) (*NonceIssuer, error) {
	p, err := protect.New(noncePurpose, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nonce protector: %w", err)
	}
	return NewNonceIssuer(p, clk, opts), nil
}

// Issue returns a new nonce.
func (n *NonceIssuer) Issue() (string, error) {
	ts := strconv.FormatInt(n.clock.Now().Unix(), 10)
	nonce, err := n.protector.Protect([]byte(ts))
	if err != nil {
		return "", fmt.Errorf("failed to issue nonce: %w", err)
	}
	return nonce, nil
}

// Validate reports whether nonce was issued by this issuer and is fresh.
func (n *NonceIssuer) Validate(nonce string) bool {
	raw, err := n.protector.Unprotect(nonce)
	if err != nil {
		return false
	}
	issued, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false
	}
	return checkWindow(issued, n.clock.Now().Unix(), n.opts) == ""
}
