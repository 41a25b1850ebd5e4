// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package grants exposes persisted grants to users and removes expired
// grants and device codes in the background.
package grants

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"k8s.io/utils/clock"

	tcerrors "github.com/stacklok/tokencore/pkg/errors"
	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/storage"
)

// Service lists and revokes a subject's grants.
type Service struct {
	store  storage.PersistedGrantStore
	clock  clock.PassiveClock
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock sets the clock used to hide expired grants.
func WithServiceClock(c clock.PassiveClock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over store.
func NewService(store storage.PersistedGrantStore, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("persisted grant store is required")
	}
	s := &Service{
		store:  store,
		clock:  clock.RealClock{},
		logger: logger.ForComponent("grants"),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// GetAllGrants returns the unexpired grants of subjectID, oldest first.
func (s *Service) GetAllGrants(ctx context.Context, subjectID string) ([]*storage.PersistedGrant, error) {
	if subjectID == "" {
		return nil, tcerrors.NewInvalidArgumentError("subject id is required", nil)
	}
	filter := storage.PersistedGrantFilter{SubjectID: subjectID}
	if err := filter.Validate(); err != nil {
		return nil, tcerrors.NewInvalidArgumentError("invalid grant filter", err)
	}

	all, err := s.store.GetAllGrants(ctx, filter)
	if err != nil {
		return nil, tcerrors.NewStoreError("failed to load grants", err)
	}

	now := s.clock.Now()
	out := make([]*storage.PersistedGrant, 0, len(all))
	for _, g := range all {
		if g.IsExpired(now) {
			continue
		}
		out = append(out, g)
	}
	slices.SortStableFunc(out, func(a, b *storage.PersistedGrant) int {
		return a.CreationTime.Compare(b.CreationTime)
	})
	return out, nil
}

// RemoveAllGrants revokes the grants of subjectID, optionally narrowed to
// one client and one session.
func (s *Service) RemoveAllGrants(ctx context.Context, subjectID, clientID, sessionID string) error {
	if subjectID == "" {
		return tcerrors.NewInvalidArgumentError("subject id is required", nil)
	}
	filter := storage.PersistedGrantFilter{
		SubjectID: subjectID,
		ClientID:  clientID,
		SessionID: sessionID,
	}
	if err := filter.Validate(); err != nil {
		return tcerrors.NewInvalidArgumentError("invalid grant filter", err)
	}

	if err := s.store.RemoveAllGrants(ctx, filter); err != nil {
		return tcerrors.NewStoreError("failed to remove grants", err)
	}
	s.logger.Debug("removed grants",
		"subject_id", subjectID,
		"client_id", clientID,
		"session_id", sessionID)
	return nil
}
