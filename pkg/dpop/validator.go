// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package dpop validates DPoP proofs (RFC 9449) and binds access tokens to
// the proving key.
package dpop

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"k8s.io/utils/clock"

	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/replay"
)

const instrumentationName = "github.com/stacklok/tokencore/pkg/dpop"

var attrResult = attribute.Key("dpop.result")

// Context is the request a proof is validated against.
type Context struct {
	Proof  string
	Method string
	URL    string
	// ExpectedNonce, when set, is the only nonce accepted.
	ExpectedNonce string
	// AccessToken is the token presented with a resource request. When set
	// the proof must carry a matching ath claim.
	AccessToken string
	ClientID    string
	// Options overrides the validator's options for this call.
	Options *Options
}

// Validator validates DPoP proofs. It is safe for concurrent use.
type Validator struct {
	opts           Options
	replay         replay.Cache
	clock          clock.PassiveClock
	logger         *slog.Logger
	nonces         *NonceIssuer
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	tracer      trace.Tracer
	validations metric.Int64Counter
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used for time window checks.
func WithClock(c clock.PassiveClock) Option {
	return func(v *Validator) { v.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// WithNonceIssuer enables server-issued nonces.
func WithNonceIssuer(n *NonceIssuer) Option {
	return func(v *Validator) { v.nonces = n }
}

// WithMeterProvider sets the meter provider for validation metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(v *Validator) { v.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(v *Validator) { v.tracerProvider = tp }
}

// New creates a Validator recording proof IDs in cache.
func New(opts Options, cache replay.Cache, options ...Option) (*Validator, error) {
	if cache == nil {
		return nil, errors.New("replay cache is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dpop options: %w", err)
	}

	v := &Validator{
		opts:           opts,
		replay:         cache,
		clock:          clock.RealClock{},
		logger:         logger.ForComponent("dpop"),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range options {
		o(v)
	}

	v.tracer = v.tracerProvider.Tracer(instrumentationName)
	counter, err := v.meterProvider.Meter(instrumentationName).Int64Counter(
		"tokencore_dpop_validations_total",
		metric.WithDescription("Total number of DPoP proof validations by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create validations counter: %w", err)
	}
	v.validations = counter
	return v, nil
}

// Validate checks a proof against vctx. Rejected proofs are reported in the
// Result. An error is returned only when the replay cache fails, in which
// case the proof must not be accepted.
func (v *Validator) Validate(ctx context.Context, vctx Context) (*Result, error) {
	ctx, span := v.tracer.Start(ctx, "dpop.Validate", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	opts := v.opts
	if vctx.Options != nil {
		opts = *vctx.Options
	}

	res, err := v.validate(ctx, vctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	outcome := "success"
	if res.IsError {
		outcome = res.Error
		v.logger.Debug("dpop proof rejected",
			"client_id", vctx.ClientID,
			"error", res.Error,
			"description", res.ErrorDescription)
	}
	span.SetAttributes(attrResult.String(outcome))
	v.validations.Add(ctx, 1, metric.WithAttributes(attrResult.String(outcome)))
	return res, nil
}

func (v *Validator) validate(ctx context.Context, vctx Context, opts Options) (*Result, error) {
	jws, err := jose.ParseSignedCompact(vctx.Proof, SupportedAlgorithms)
	if err != nil || len(jws.Signatures) != 1 {
		return failure(ErrorInvalidProof, DescMalformed), nil
	}
	hdr := jws.Signatures[0].Protected

	if typ, _ := hdr.ExtraHeaders[jose.HeaderType].(string); typ != JWTType {
		return failure(ErrorInvalidProof, DescInvalidTyp), nil
	}
	if !slices.Contains(opts.allowedAlgorithms(), jose.SignatureAlgorithm(hdr.Algorithm)) {
		return failure(ErrorInvalidProof, DescInvalidAlg), nil
	}
	jwk := hdr.JSONWebKey
	if !isSupportedPublicKey(jwk) {
		return failure(ErrorInvalidProof, DescInvalidJWK), nil
	}

	payload, err := jws.Verify(jwk.Key)
	if err != nil {
		return failure(ErrorInvalidProof, DescInvalidSignature), nil
	}
	if !gjson.ValidBytes(payload) {
		return failure(ErrorInvalidProof, DescMalformed), nil
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return failure(ErrorInvalidProof, DescMalformed), nil
	}

	jti := doc.Get("jti")
	if jti.Type != gjson.String || jti.String() == "" {
		return failure(ErrorInvalidProof, DescInvalidJti), nil
	}
	if htm := doc.Get("htm"); htm.Type != gjson.String || !strings.EqualFold(htm.String(), vctx.Method) {
		return failure(ErrorInvalidProof, DescInvalidHtm), nil
	}
	if htu := doc.Get("htu"); htu.Type != gjson.String || !sameTarget(htu.String(), vctx.URL) {
		return failure(ErrorInvalidProof, DescInvalidHtu), nil
	}

	iat := doc.Get("iat")
	if !iat.Exists() {
		return failure(ErrorInvalidProof, DescMissingIat), nil
	}
	if iat.Type != gjson.Number {
		return failure(ErrorInvalidProof, DescInvalidIat), nil
	}
	issuedAt := time.Unix(iat.Int(), 0).UTC()
	now := v.clock.Now()
	if opts.ValidateIat {
		if desc := checkWindow(iat.Int(), now.Unix(), opts); desc != "" {
			return failure(ErrorInvalidProof, desc), nil
		}
	}

	var ath string
	if vctx.AccessToken != "" {
		got := doc.Get("ath")
		if !got.Exists() {
			return failure(ErrorInvalidProof, DescMissingAth), nil
		}
		ath = got.String()
		want := AccessTokenHash(vctx.AccessToken)
		if got.Type != gjson.String || subtle.ConstantTimeCompare([]byte(ath), []byte(want)) != 1 {
			return failure(ErrorInvalidProof, DescInvalidAth), nil
		}
	}

	var nonce string
	if n := doc.Get("nonce"); n.Exists() {
		if n.Type != gjson.String {
			return failure(ErrorInvalidProof, DescInvalidNonce), nil
		}
		nonce = n.String()
	}
	if opts.ValidateNonce {
		if desc := v.checkNonce(nonce, vctx.ExpectedNonce); desc != "" {
			return v.nonceFailure(desc), nil
		}
	}

	thumbprint, err := Thumbprint(jwk)
	if err != nil {
		return failure(ErrorInvalidProof, DescInvalidJWK), nil
	}
	added, err := v.replay.TryAdd(ctx, ReplayKey(thumbprint, jti.String()), now.Add(opts.ReplayWindow()))
	if err != nil {
		return nil, fmt.Errorf("failed to record dpop proof: %w", err)
	}
	if !added {
		return failure(ErrorInvalidProof, DescReplay), nil
	}

	public := jwk.Public()
	jwkJSON, err := public.MarshalJSON()
	if err != nil {
		return failure(ErrorInvalidProof, DescInvalidJWK), nil
	}

	var claims []Claim
	doc.ForEach(func(key, value gjson.Result) bool {
		claims = append(claims, Claim{Name: key.String(), Value: value.Value()})
		return true
	})

	return &Result{
		JSONWebKey:           string(jwkJSON),
		JSONWebKeyThumbprint: thumbprint,
		Confirmation:         Confirmation(thumbprint),
		Payload:              claims,
		TokenIDHash:          hashString(jti.String()),
		AccessTokenHash:      ath,
		Nonce:                nonce,
		IssuedAt:             issuedAt,
	}, nil
}

func (v *Validator) checkNonce(nonce, expected string) string {
	if nonce == "" {
		return DescMissingNonce
	}
	switch {
	case expected != "":
		if subtle.ConstantTimeCompare([]byte(nonce), []byte(expected)) != 1 {
			return DescInvalidNonce
		}
	case v.nonces != nil:
		if !v.nonces.Validate(nonce) {
			return DescInvalidNonce
		}
	default:
		return DescInvalidNonce
	}
	return ""
}

func (v *Validator) nonceFailure(desc string) *Result {
	res := failure(ErrorUseNonce, desc)
	if v.nonces == nil {
		return res
	}
	fresh, err := v.nonces.Issue()
	if err != nil {
		v.logger.Warn("failed to issue dpop nonce", "error", err)
		return res
	}
	res.ServerIssuedNonce = fresh
	return res
}

// maxWindowSeconds bounds an age that still fits in a time.Duration.
const maxWindowSeconds = math.MaxInt64 / int64(time.Second)

// checkWindow returns the error description for an iat outside the accepted
// window around now, or "" when it is acceptable. Both are Unix seconds.
func checkWindow(iatSeconds, nowSeconds int64, opts Options) string {
	// bounds are checked before subtracting so that no value can wrap
	if iatSeconds > nowSeconds+maxWindowSeconds {
		return DescIatNotYetValid
	}
	if iatSeconds < nowSeconds-maxWindowSeconds {
		return DescIatExpired
	}
	age := time.Duration(nowSeconds-iatSeconds) * time.Second
	if age < -opts.ClientClockSkew {
		return DescIatNotYetValid
	}
	if age > opts.ProofTokenValidityDuration+opts.ServerClockSkew {
		return DescIatExpired
	}
	return ""
}

func isSupportedPublicKey(jwk *jose.JSONWebKey) bool {
	if jwk == nil || !jwk.Valid() || !jwk.IsPublic() {
		return false
	}
	switch jwk.Key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return true
	default:
		return false
	}
}

// sameTarget compares two URLs ignoring query and fragment.
func sameTarget(a, b string) bool {
	ua, err := stripURL(a)
	if err != nil {
		return false
	}
	ub, err := stripURL(b)
	if err != nil {
		return false
	}
	return ua == ub
}

func stripURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", raw)
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}
