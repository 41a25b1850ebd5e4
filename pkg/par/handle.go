// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package par

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

//go:generate mockgen -destination=mocks/mock_handle.go -package=mocks -source=handle.go HandleGenerator

// DefaultHandleLength gives about 285 bits of entropy.
const DefaultHandleLength = 48

// HandleGenerator produces unpredictable URL-safe reference values.
type HandleGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// Base62Generator generates handles from the crypto/rand backed base62
// alphabet.
type Base62Generator struct {
	Length int
}

// Generate implements HandleGenerator.
func (g Base62Generator) Generate(_ context.Context) (string, error) {
	length := g.Length
	if length <= 0 {
		length = DefaultHandleLength
	}
	handle, err := base62.Random(length)
	if err != nil {
		return "", fmt.Errorf("failed to generate handle: %w", err)
	}
	return handle, nil
}
