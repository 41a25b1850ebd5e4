// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package protect

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) []byte {
	t.Helper()
	k, err := GenerateKey()
	require.NoError(t, err)
	return k
}

func TestJWEProtector_RoundTrip(t *testing.T) {
	t.Parallel()

	p, err := New("signing-keys", mustKey(t))
	require.NoError(t, err)

	sealed, err := p.Protect([]byte(`{"kty":"EC"}`))
	require.NoError(t, err)
	assert.Len(t, strings.Split(sealed, "."), 5, "compact JWE has five parts")
	assert.NotContains(t, sealed, "kty")

	plain, err := p.Unprotect(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"kty":"EC"}`, string(plain))
}

func TestJWEProtector_PurposeIsolation(t *testing.T) {
	t.Parallel()

	key := mustKey(t)
	keys, err := New("signing-keys", key)
	require.NoError(t, err)
	nonces, err := New("dpop-nonce", key)
	require.NoError(t, err)

	sealed, err := keys.Protect([]byte("secret"))
	require.NoError(t, err)

	_, err = nonces.Unprotect(sealed)
	assert.ErrorIs(t, err, ErrUnprotect)
}

func TestJWEProtector_KeyRotation(t *testing.T) {
	t.Parallel()

	oldKey, newKey := mustKey(t), mustKey(t)
	before, err := New("p", oldKey)
	require.NoError(t, err)
	after, err := New("p", newKey, oldKey)
	require.NoError(t, err)
	newOnly, err := New("p", newKey)
	require.NoError(t, err)

	sealed, err := before.Protect([]byte("data"))
	require.NoError(t, err)

	plain, err := after.Unprotect(sealed)
	require.NoError(t, err)
	assert.Equal(t, "data", string(plain))

	_, err = newOnly.Unprotect(sealed)
	assert.ErrorIs(t, err, ErrUnprotect)
}

func TestJWEProtector_Tampering(t *testing.T) {
	t.Parallel()

	p, err := New("p", mustKey(t))
	require.NoError(t, err)
	sealed, err := p.Protect([]byte("data"))
	require.NoError(t, err)

	parts := strings.Split(sealed, ".")
	ct, err := base64.RawURLEncoding.DecodeString(parts[3])
	require.NoError(t, err)
	ct[0] ^= 0xff
	parts[3] = base64.RawURLEncoding.EncodeToString(ct)

	_, err = p.Unprotect(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrUnprotect)

	_, err = p.Unprotect("not-a-jwe")
	assert.ErrorIs(t, err, ErrUnprotect)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New("", mustKey(t))
	assert.Error(t, err)
	_, err = New("p")
	assert.Error(t, err)
	_, err = New("p", []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDecodeKey(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{0xfb}, KeySize)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawURLEncoding} {
		got, err := DecodeKey(enc.EncodeToString(key))
		require.NoError(t, err)
		assert.Equal(t, key, got)
	}

	_, err := DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = DecodeKey("!!!")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
