// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package par implements pushed authorization requests (RFC 9126): a client
// pushes its authorization parameters and gets back a short-lived request_uri
// to use at the authorization endpoint.
package par

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"k8s.io/utils/clock"

	tcerrors "github.com/stacklok/tokencore/pkg/errors"
	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/storage"
)

const (
	// RequestURIPrefix prefixes the reference value in a request_uri.
	RequestURIPrefix = "urn:ietf:params:oauth:request_uri:"

	// DefaultLifetime applies when the client sets no lifetime.
	DefaultLifetime = 10 * time.Minute

	// MinLifetime is the shortest lifetime that expires_in can express.
	MinLifetime = time.Second
)

// ErrNotFound is returned for unknown, expired or consumed references.
var ErrNotFound = errors.New("pushed authorization request not found")

// Client is the part of a client's configuration that PAR needs.
type Client struct {
	ClientID string
	// PushedAuthorizationLifetime overrides the service default when set.
	PushedAuthorizationLifetime *time.Duration
}

// Response is returned to the client after a successful push.
type Response struct {
	RequestURI     string
	ReferenceValue string
	ExpiresIn      int
}

// DeserializedRequest is a stored request read back by reference.
type DeserializedRequest struct {
	ReferenceValue string
	ExpiresAtUTC   time.Time
	Parameters     url.Values
}

// Service stores and redeems pushed authorization requests.
type Service struct {
	store    storage.PushedAuthorizationRequestStore
	handles  HandleGenerator
	clock    clock.PassiveClock
	lifetime time.Duration
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithHandleGenerator replaces the base62 handle generator.
func WithHandleGenerator(g HandleGenerator) Option {
	return func(s *Service) { s.handles = g }
}

// WithClock sets the clock expiry is computed and enforced with.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Service) { s.clock = c }
}

// WithDefaultLifetime sets the lifetime for clients without their own.
func WithDefaultLifetime(d time.Duration) Option {
	return func(s *Service) { s.lifetime = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over store.
func NewService(store storage.PushedAuthorizationRequestStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("pushed authorization request store is required")
	}
	s := &Service{
		store:    store,
		handles:  Base62Generator{},
		clock:    clock.RealClock{},
		lifetime: DefaultLifetime,
		logger:   logger.ForComponent("par"),
	}
	for _, o := range opts {
		o(s)
	}
	if s.lifetime < MinLifetime {
		return nil, tcerrors.NewConfigurationError("default lifetime must be at least one second", nil)
	}
	return s, nil
}

// Store persists params for client and returns the request_uri. Nothing is
// returned unless the request was stored.
func (s *Service) Store(ctx context.Context, client Client, params url.Values) (*Response, error) {
	lifetime := s.lifetime
	if client.PushedAuthorizationLifetime != nil {
		lifetime = *client.PushedAuthorizationLifetime
	}
	if lifetime < MinLifetime {
		return nil, tcerrors.NewInvalidArgumentError(
			fmt.Sprintf("client %s has a pushed authorization lifetime under one second", client.ClientID), nil)
	}

	reference, err := s.handles.Generate(ctx)
	if err != nil {
		return nil, tcerrors.NewInternalError("failed to generate reference value", err)
	}
	if reference == "" {
		return nil, tcerrors.NewInternalError("handle generator returned an empty reference value", nil)
	}

	req := &storage.PushedAuthorizationRequest{
		ReferenceValueHash: hashReference(reference),
		ExpiresAtUTC:       s.clock.Now().UTC().Add(lifetime),
		Parameters:         cloneValues(params),
	}
	if err := s.store.StorePushedAuthorizationRequest(ctx, req); err != nil {
		return nil, tcerrors.NewStoreError("failed to store pushed authorization request", err)
	}

	s.logger.Debug("stored pushed authorization request",
		"client_id", client.ClientID, "expires_at", req.ExpiresAtUTC)
	return &Response{
		RequestURI:     RequestURIPrefix + reference,
		ReferenceValue: reference,
		// truncated, so the client never holds a request_uri past its expiry
		ExpiresIn: int(lifetime / time.Second),
	}, nil
}

// Get returns the request stored under reference. Expired requests are
// reported as ErrNotFound even if the store still holds them.
func (s *Service) Get(ctx context.Context, reference string) (*DeserializedRequest, error) {
	req, err := s.store.GetPushedAuthorizationRequest(ctx, hashReference(reference))
	return s.deserialize(reference, req, err)
}

// Consume returns the request stored under reference and removes it, so a
// reference can be redeemed once.
func (s *Service) Consume(ctx context.Context, reference string) (*DeserializedRequest, error) {
	req, err := s.store.ConsumePushedAuthorizationRequest(ctx, hashReference(reference))
	return s.deserialize(reference, req, err)
}

func (s *Service) deserialize(reference string, req *storage.PushedAuthorizationRequest, err error) (*DeserializedRequest, error) {
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, tcerrors.NewStoreError("failed to read pushed authorization request", err)
	}
	if !req.ExpiresAtUTC.After(s.clock.Now()) {
		return nil, ErrNotFound
	}
	return &DeserializedRequest{
		ReferenceValue: reference,
		ExpiresAtUTC:   req.ExpiresAtUTC.UTC(),
		Parameters:     cloneValues(req.Parameters),
	}, nil
}

// ParseRequestURI extracts the reference value from a request_uri.
func ParseRequestURI(requestURI string) (string, error) {
	reference, ok := strings.CutPrefix(requestURI, RequestURIPrefix)
	if !ok || reference == "" {
		return "", tcerrors.NewInvalidArgumentError(fmt.Sprintf("invalid request_uri %q", requestURI), nil)
	}
	return reference, nil
}

func hashReference(reference string) string {
	sum := sha256.Sum256([]byte(reference))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = slices.Clone(vals)
	}
	return out
}
