// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package dpop

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/stacklok/tokencore/pkg/protect"
	"github.com/stacklok/tokencore/pkg/replay"
	"github.com/stacklok/tokencore/pkg/replay/mocks"
)

const (
	testMethod = "POST"
	testURL    = "https://as.example/token"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func generateTestES256Key(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func newTestValidator(t *testing.T, opts Options, options ...Option) (*Validator, *clocktesting.FakePassiveClock) {
	t.Helper()
	clk := clocktesting.NewFakePassiveClock(testNow)
	cache := replay.NewMemoryCache(replay.WithClock(clk))
	v, err := New(opts, cache, append([]Option{WithClock(clk)}, options...)...)
	require.NoError(t, err)
	return v, clk
}

func mintProof(t *testing.T, key crypto.Signer, alg jose.SignatureAlgorithm, claims ProofClaims) string {
	t.Helper()
	if claims.Method == "" {
		claims.Method = testMethod
	}
	if claims.URL == "" {
		claims.URL = testURL
	}
	if claims.IssuedAt.IsZero() {
		claims.IssuedAt = testNow
	}
	proof, err := NewProof(key, alg, claims)
	require.NoError(t, err)
	return proof
}

func validate(t *testing.T, v *Validator, vctx Context) *Result {
	t.Helper()
	if vctx.Method == "" {
		vctx.Method = testMethod
	}
	if vctx.URL == "" {
		vctx.URL = testURL
	}
	res, err := v.Validate(context.Background(), vctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func requireFailure(t *testing.T, res *Result, code, description string) {
	t.Helper()
	require.True(t, res.IsError, "expected failure %q", description)
	assert.Equal(t, code, res.Error)
	assert.Equal(t, description, res.ErrorDescription)
}

func TestValidate_Success(t *testing.T) {
	t.Parallel()

	v, _ := newTestValidator(t, DefaultOptions())
	key := generateTestES256Key(t)
	proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "abc123"})

	res := validate(t, v, Context{Proof: proof, ClientID: "c1"})
	require.False(t, res.IsError, res.ErrorDescription)

	jwk := jose.JSONWebKey{Key: &key.PublicKey}
	wantThumbprint, err := Thumbprint(&jwk)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("abc123"))

	assert.Equal(t, wantThumbprint, res.JSONWebKeyThumbprint)
	assert.Equal(t, `{"jkt":"`+wantThumbprint+`"}`, res.Confirmation)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), res.TokenIDHash)
	assert.Equal(t, testNow, res.IssuedAt)
	assert.Contains(t, res.JSONWebKey, `"kty":"EC"`)
	assert.NotContains(t, res.JSONWebKey, `"d":`)
	assert.Empty(t, res.AccessTokenHash)
	assert.Empty(t, res.ServerIssuedNonce)

	names := make([]string, 0, len(res.Payload))
	for _, c := range res.Payload {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"htm", "htu", "iat", "jti"}, names)
	jti, ok := res.Claim("jti")
	require.True(t, ok)
	assert.Equal(t, "abc123", jti)
}

func TestValidate_RSAKey(t *testing.T) {
	t.Parallel()

	v, _ := newTestValidator(t, DefaultOptions())
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	for _, alg := range []jose.SignatureAlgorithm{jose.RS256, jose.PS256} {
		proof := mintProof(t, key, alg, ProofClaims{ID: "rsa-" + string(alg)})
		res := validate(t, v, Context{Proof: proof})
		assert.False(t, res.IsError, "%s: %s", alg, res.ErrorDescription)
	}
}

func TestValidate_Replay(t *testing.T) {
	t.Parallel()

	v, clk := newTestValidator(t, DefaultOptions())
	key := generateTestES256Key(t)
	proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "once"})

	require.False(t, validate(t, v, Context{Proof: proof}).IsError)

	clk.SetTime(testNow.Add(30 * time.Second))
	requireFailure(t, validate(t, v, Context{Proof: proof}), ErrorInvalidProof, DescReplay)

	// Same jti from a different key is a different proof.
	other := mintProof(t, generateTestES256Key(t), jose.ES256, ProofClaims{ID: "once"})
	assert.False(t, validate(t, v, Context{Proof: other}).IsError)
}

func TestValidate_ConcurrentReplaySucceedsOnce(t *testing.T) {
	t.Parallel()

	v, _ := newTestValidator(t, DefaultOptions())
	proof := mintProof(t, generateTestES256Key(t), jose.ES256, ProofClaims{ID: "race"})

	const callers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		replays   atomic.Int32
	)
	start := make(chan struct{})
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := v.Validate(context.Background(), Context{Proof: proof, Method: testMethod, URL: testURL})
			if err != nil {
				return
			}
			switch {
			case !res.IsError:
				successes.Add(1)
			case res.ErrorDescription == DescReplay:
				replays.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(callers-1), replays.Load())
}

func TestValidate_IssuedAtWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		iat      time.Time
		wantDesc string
	}{
		{name: "now", iat: testNow},
		{name: "at client skew", iat: testNow.Add(DefaultClientClockSkew)},
		{name: "beyond client skew", iat: testNow.Add(DefaultClientClockSkew + time.Second), wantDesc: DescIatNotYetValid},
		{name: "at validity", iat: testNow.Add(-DefaultProofTokenValidityDuration)},
		{name: "beyond validity", iat: testNow.Add(-DefaultProofTokenValidityDuration - time.Second), wantDesc: DescIatExpired},
		// ages whose nanosecond count wraps int64
		{name: "far past", iat: time.Unix(testNow.Unix()-18446744074, 0), wantDesc: DescIatExpired},
		{name: "far future", iat: time.Unix(testNow.Unix()+18446744074, 0), wantDesc: DescIatNotYetValid},
		{name: "oldest representable", iat: time.Unix(math.MinInt64/2, 0), wantDesc: DescIatExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, _ := newTestValidator(t, DefaultOptions())
			proof := mintProof(t, generateTestES256Key(t), jose.ES256, ProofClaims{ID: "iat", IssuedAt: tt.iat})
			res := validate(t, v, Context{Proof: proof})
			if tt.wantDesc == "" {
				assert.False(t, res.IsError, res.ErrorDescription)
				return
			}
			requireFailure(t, res, ErrorInvalidProof, tt.wantDesc)
		})
	}
}

func TestValidate_IssuedAtWindowDisabled(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.ValidateIat = false
	v, _ := newTestValidator(t, opts)
	proof := mintProof(t, generateTestES256Key(t), jose.ES256, ProofClaims{ID: "old", IssuedAt: testNow.Add(-time.Hour)})

	assert.False(t, validate(t, v, Context{Proof: proof}).IsError)
}

func TestValidate_ServerClockSkewExtendsValidity(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.ServerClockSkew = 30 * time.Second
	v, _ := newTestValidator(t, opts)
	proof := mintProof(t, generateTestES256Key(t), jose.ES256, ProofClaims{ID: "skew", IssuedAt: testNow.Add(-80 * time.Second)})

	assert.False(t, validate(t, v, Context{Proof: proof}).IsError)
}

func TestValidate_MethodAndURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		htm      string
		htu      string
		method   string
		url      string
		wantDesc string
	}{
		{name: "method case insensitive", htm: "post", htu: testURL, method: "POST", url: testURL},
		{name: "query and fragment ignored", htm: "GET", htu: "https://rs.example/api?x=1#frag", method: "GET", url: "https://rs.example/api?y=2"},
		{name: "method mismatch", htm: "GET", htu: testURL, method: "POST", url: testURL, wantDesc: DescInvalidHtm},
		{name: "path mismatch", htm: "POST", htu: "https://as.example/other", method: "POST", url: testURL, wantDesc: DescInvalidHtu},
		{name: "host mismatch", htm: "POST", htu: "https://evil.example/token", method: "POST", url: testURL, wantDesc: DescInvalidHtu},
		{name: "relative htu", htm: "POST", htu: "/token", method: "POST", url: testURL, wantDesc: DescInvalidHtu},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, _ := newTestValidator(t, DefaultOptions())
			proof := mintProof(t, generateTestES256Key(t), jose.ES256, ProofClaims{ID: "m", Method: tt.htm, URL: tt.htu})
			res := validate(t, v, Context{Proof: proof, Method: tt.method, URL: tt.url})
			if tt.wantDesc == "" {
				assert.False(t, res.IsError, res.ErrorDescription)
				return
			}
			requireFailure(t, res, ErrorInvalidProof, tt.wantDesc)
		})
	}
}

func TestValidate_AccessTokenHash(t *testing.T) {
	t.Parallel()

	key := generateTestES256Key(t)

	t.Run("matching ath", func(t *testing.T) {
		t.Parallel()
		v, _ := newTestValidator(t, DefaultOptions())
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "a1", AccessToken: "token-1"})
		res := validate(t, v, Context{Proof: proof, AccessToken: "token-1"})
		require.False(t, res.IsError, res.ErrorDescription)
		assert.Equal(t, AccessTokenHash("token-1"), res.AccessTokenHash)
	})

	t.Run("missing ath", func(t *testing.T) {
		t.Parallel()
		v, _ := newTestValidator(t, DefaultOptions())
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "a2"})
		requireFailure(t, validate(t, v, Context{Proof: proof, AccessToken: "token-1"}), ErrorInvalidProof, DescMissingAth)
	})

	t.Run("wrong ath", func(t *testing.T) {
		t.Parallel()
		v, _ := newTestValidator(t, DefaultOptions())
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "a3", AccessToken: "token-2"})
		requireFailure(t, validate(t, v, Context{Proof: proof, AccessToken: "token-1"}), ErrorInvalidProof, DescInvalidAth)
	})
}

func TestValidate_Nonce(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.ValidateNonce = true
	key := generateTestES256Key(t)

	newIssuerValidator := func(t *testing.T) (*Validator, *NonceIssuer, *clocktesting.FakePassiveClock) {
		t.Helper()
		protectionKey, err := protect.GenerateKey()
		require.NoError(t, err)
		clk := clocktesting.NewFakePassiveClock(testNow)
		issuer, err := NewNonceIssuerFromKeys(clk, opts, protectionKey)
		require.NoError(t, err)
		v, err := New(opts, replay.NewMemoryCache(replay.WithClock(clk)), WithClock(clk), WithNonceIssuer(issuer))
		require.NoError(t, err)
		return v, issuer, clk
	}

	t.Run("expected nonce matches", func(t *testing.T) {
		t.Parallel()
		v, _ := newTestValidator(t, opts)
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n1", Nonce: "n-1"})
		res := validate(t, v, Context{Proof: proof, ExpectedNonce: "n-1"})
		require.False(t, res.IsError, res.ErrorDescription)
		assert.Equal(t, "n-1", res.Nonce)
	})

	t.Run("expected nonce mismatch", func(t *testing.T) {
		t.Parallel()
		v, _ := newTestValidator(t, opts)
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n2", Nonce: "n-2"})
		requireFailure(t, validate(t, v, Context{Proof: proof, ExpectedNonce: "n-1"}), ErrorUseNonce, DescInvalidNonce)
	})

	t.Run("missing nonce gets a fresh one", func(t *testing.T) {
		t.Parallel()
		v, issuer, _ := newIssuerValidator(t)
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n3"})
		res := validate(t, v, Context{Proof: proof})
		requireFailure(t, res, ErrorUseNonce, DescMissingNonce)
		require.NotEmpty(t, res.ServerIssuedNonce)
		assert.True(t, issuer.Validate(res.ServerIssuedNonce))
	})

	t.Run("server issued nonce accepted", func(t *testing.T) {
		t.Parallel()
		v, issuer, _ := newIssuerValidator(t)
		nonce, err := issuer.Issue()
		require.NoError(t, err)
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n4", Nonce: nonce})
		res := validate(t, v, Context{Proof: proof})
		require.False(t, res.IsError, res.ErrorDescription)
		assert.Equal(t, nonce, res.Nonce)
	})

	t.Run("stale server nonce rejected", func(t *testing.T) {
		t.Parallel()
		v, issuer, clk := newIssuerValidator(t)
		nonce, err := issuer.Issue()
		require.NoError(t, err)
		clk.SetTime(testNow.Add(2 * time.Minute))
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n5", Nonce: nonce, IssuedAt: clk.Now()})
		res := validate(t, v, Context{Proof: proof})
		requireFailure(t, res, ErrorUseNonce, DescInvalidNonce)
		assert.NotEmpty(t, res.ServerIssuedNonce)
	})

	t.Run("forged nonce rejected", func(t *testing.T) {
		t.Parallel()
		v, _, _ := newIssuerValidator(t)
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n6", Nonce: "made-up"})
		requireFailure(t, validate(t, v, Context{Proof: proof}), ErrorUseNonce, DescInvalidNonce)
	})

	t.Run("nonce required without source", func(t *testing.T) {
		t.Parallel()
		v, _ := newTestValidator(t, opts)
		proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "n7", Nonce: "anything"})
		res := validate(t, v, Context{Proof: proof})
		requireFailure(t, res, ErrorUseNonce, DescInvalidNonce)
		assert.Empty(t, res.ServerIssuedNonce)
	})
}

func TestValidate_RejectedProofs(t *testing.T) {
	t.Parallel()

	key := generateTestES256Key(t)

	signWith := func(t *testing.T, signingKey jose.SigningKey, opts *jose.SignerOptions, payload string) string {
		t.Helper()
		signer, err := jose.NewSigner(signingKey, opts)
		require.NoError(t, err)
		jws, err := signer.Sign([]byte(payload))
		require.NoError(t, err)
		out, err := jws.CompactSerialize()
		require.NoError(t, err)
		return out
	}
	payload := fmt.Sprintf(`{"jti":"x","htm":"POST","htu":%q,"iat":%d}`, testURL, testNow.Unix())

	swapPayload := func(t *testing.T) string {
		t.Helper()
		a := strings.Split(mintProof(t, key, jose.ES256, ProofClaims{ID: "a"}), ".")
		b := strings.Split(mintProof(t, key, jose.ES256, ProofClaims{ID: "b"}), ".")
		return strings.Join([]string{a[0], b[1], a[2]}, ".")
	}

	tests := []struct {
		name     string
		proof    func(t *testing.T) string
		wantDesc string
	}{
		{
			name:     "not a jwt",
			proof:    func(*testing.T) string { return "not-a-token" },
			wantDesc: DescMalformed,
		},
		{
			name: "symmetric algorithm",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.HS256, Key: []byte("0123456789abcdef0123456789abcdef")},
					(&jose.SignerOptions{}).WithType(JWTType), payload)
			},
			wantDesc: DescMalformed,
		},
		{
			name: "wrong typ",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType("JWT"), payload)
			},
			wantDesc: DescInvalidTyp,
		},
		{
			name: "no embedded key",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{}).WithType(JWTType), payload)
			},
			wantDesc: DescInvalidJWK,
		},
		{
			name:     "tampered payload",
			proof:    swapPayload,
			wantDesc: DescInvalidSignature,
		},
		{
			name: "payload not an object",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType), `["jti"]`)
			},
			wantDesc: DescMalformed,
		},
		{
			name: "missing jti",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType),
					fmt.Sprintf(`{"htm":"POST","htu":%q,"iat":%d}`, testURL, testNow.Unix()))
			},
			wantDesc: DescInvalidJti,
		},
		{
			name: "missing iat",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType),
					fmt.Sprintf(`{"jti":"x","htm":"POST","htu":%q}`, testURL))
			},
			wantDesc: DescMissingIat,
		},
		{
			name: "string iat",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType),
					fmt.Sprintf(`{"jti":"x","htm":"POST","htu":%q,"iat":"now"}`, testURL))
			},
			wantDesc: DescInvalidIat,
		},
		{
			name: "numeric nonce",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType),
					fmt.Sprintf(`{"jti":"x","htm":"POST","htu":%q,"iat":%d,"nonce":123}`, testURL, testNow.Unix()))
			},
			wantDesc: DescInvalidNonce,
		},
		{
			name: "iat beyond int64 range",
			proof: func(t *testing.T) string {
				return signWith(t, jose.SigningKey{Algorithm: jose.ES256, Key: key},
					(&jose.SignerOptions{EmbedJWK: true}).WithType(JWTType),
					fmt.Sprintf(`{"jti":"x","htm":"POST","htu":%q,"iat":-1e30}`, testURL))
			},
			wantDesc: DescIatExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, _ := newTestValidator(t, DefaultOptions())
			requireFailure(t, validate(t, v, Context{Proof: tt.proof(t)}), ErrorInvalidProof, tt.wantDesc)
		})
	}
}

func TestValidate_PerCallAlgorithmRestriction(t *testing.T) {
	t.Parallel()

	v, _ := newTestValidator(t, DefaultOptions())
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	proof := mintProof(t, key, jose.ES384, ProofClaims{ID: "alg"})

	restricted := DefaultOptions()
	restricted.SupportedAlgorithms = []jose.SignatureAlgorithm{jose.ES256}
	requireFailure(t, validate(t, v, Context{Proof: proof, Options: &restricted}), ErrorInvalidProof, DescInvalidAlg)

	assert.False(t, validate(t, v, Context{Proof: proof}).IsError)
}

func TestValidate_ReplayCacheError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)
	clk := clocktesting.NewFakePassiveClock(testNow)
	v, err := New(DefaultOptions(), cache, WithClock(clk))
	require.NoError(t, err)

	key := generateTestES256Key(t)
	jwk := jose.JSONWebKey{Key: &key.PublicKey}
	thumbprint, err := Thumbprint(&jwk)
	require.NoError(t, err)

	wantExpiry := testNow.Add(DefaultProofTokenValidityDuration + DefaultClientClockSkew)
	cache.EXPECT().
		TryAdd(gomock.Any(), ReplayKey(thumbprint, "boom"), wantExpiry).
		Return(false, errors.New("redis down"))

	proof := mintProof(t, key, jose.ES256, ProofClaims{ID: "boom"})
	res, err := v.Validate(context.Background(), Context{Proof: proof, Method: testMethod, URL: testURL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Nil(t, res)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultOptions(), nil)
	require.Error(t, err)

	bad := DefaultOptions()
	bad.ProofTokenValidityDuration = 0
	_, err = New(bad, replay.NewMemoryCache())
	require.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Options) {}},
		{name: "zero validity", modify: func(o *Options) { o.ProofTokenValidityDuration = 0 }, wantErr: true},
		{name: "negative client skew", modify: func(o *Options) { o.ClientClockSkew = -time.Second }, wantErr: true},
		{name: "negative server skew", modify: func(o *Options) { o.ServerClockSkew = -time.Second }, wantErr: true},
		{name: "symmetric algorithm", modify: func(o *Options) { o.SupportedAlgorithms = []jose.SignatureAlgorithm{jose.HS256} }, wantErr: true},
		{name: "subset of algorithms", modify: func(o *Options) { o.SupportedAlgorithms = []jose.SignatureAlgorithm{jose.ES256} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, 6*time.Minute, DefaultOptions().ReplayWindow())
}

func TestResult_RFC6749Error(t *testing.T) {
	t.Parallel()

	assert.Nil(t, (&Result{}).RFC6749Error())

	rfcErr := failure(ErrorUseNonce, DescMissingNonce).RFC6749Error()
	require.NotNil(t, rfcErr)
	assert.Equal(t, ErrorUseNonce, rfcErr.ErrorField)
	assert.Equal(t, DescMissingNonce, rfcErr.DescriptionField)
	assert.Equal(t, 400, rfcErr.CodeField)
}
