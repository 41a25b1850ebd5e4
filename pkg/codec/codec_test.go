// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/sets"
)

func TestAllowedSigningAlgorithms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		algs    sets.Set[string]
		encoded string
	}{
		{"single", sets.New("RS256"), "RS256"},
		{"several sorted", sets.New("RS256", "ES256", "PS384"), "ES256,PS384,RS256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.encoded, EncodeAllowedSigningAlgorithms(tt.algs))
			assert.True(t, tt.algs.Equal(DecodeAllowedSigningAlgorithms(tt.encoded)))
			assert.Equal(t, tt.encoded, EncodeAllowedSigningAlgorithms(DecodeAllowedSigningAlgorithms(tt.encoded)))
		})
	}
}

func TestAllowedSigningAlgorithms_Empty(t *testing.T) {
	t.Parallel()

	decoded := DecodeAllowedSigningAlgorithms("")
	require.NotNil(t, decoded)
	assert.Equal(t, 0, decoded.Len())

	assert.Equal(t, "", EncodeAllowedSigningAlgorithms(nil))
	assert.Equal(t, "", EncodeAllowedSigningAlgorithms(sets.New[string]()))

	assert.True(t, sets.New("RS256", "ES256").Equal(DecodeAllowedSigningAlgorithms(" RS256 ,,ES256, ")))
}

func TestProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		props map[string]string
	}{
		{"empty", map[string]string{}},
		{"single", map[string]string{"tenant": "acme"}},
		{"special characters", map[string]string{"a,b": "c\"d", "unicode": "ünï", "": "empty key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			encoded, err := EncodeProperties(tt.props)
			require.NoError(t, err)
			decoded, err := DecodeProperties(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.props, decoded)
		})
	}
}

func TestProperties_EmptyInput(t *testing.T) {
	t.Parallel()

	encoded, err := EncodeProperties(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", encoded)

	for _, in := range []string{"", "   ", "null"} {
		decoded, err := DecodeProperties(in)
		require.NoError(t, err)
		assert.NotNil(t, decoded)
		assert.Empty(t, decoded)
	}

	_, err = DecodeProperties("[1,2]")
	assert.Error(t, err)
}
