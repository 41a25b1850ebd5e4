// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import "slices"

// PersistedGrantFilter selects persisted grants. Set fields are combined
// with AND; ClientIDs and Types match any listed value.
type PersistedGrantFilter struct {
	SubjectID string
	SessionID string
	ClientID  string
	ClientIDs []string
	Type      string
	Types     []string
}

// Validate returns ErrInvalidFilter when no field is set. An empty filter
// would otherwise match every grant in the store.
func (f PersistedGrantFilter) Validate() error {
	if f.SubjectID == "" &&
		f.SessionID == "" &&
		f.ClientID == "" &&
		len(f.ClientIDs) == 0 &&
		f.Type == "" &&
		len(f.Types) == 0 {
		return ErrInvalidFilter
	}
	return nil
}

// Matches reports whether g satisfies every set field of the filter.
func (f PersistedGrantFilter) Matches(g *PersistedGrant) bool {
	if f.SubjectID != "" && g.SubjectID != f.SubjectID {
		return false
	}
	if f.SessionID != "" && g.SessionID != f.SessionID {
		return false
	}
	if f.ClientID != "" && g.ClientID != f.ClientID {
		return false
	}
	if len(f.ClientIDs) > 0 && !slices.Contains(f.ClientIDs, g.ClientID) {
		return false
	}
	if f.Type != "" && g.Type != f.Type {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, g.Type) {
		return false
	}
	return true
}

// SessionFilter selects server-side sessions.
type SessionFilter struct {
	SubjectID string
	SessionID string
}

// Validate returns ErrInvalidFilter when neither field is set.
func (f SessionFilter) Validate() error {
	if f.SubjectID == "" && f.SessionID == "" {
		return ErrInvalidFilter
	}
	return nil
}

// Matches reports whether s satisfies every set field of the filter.
func (f SessionFilter) Matches(s *ServerSideSession) bool {
	if f.SubjectID != "" && s.SubjectID != f.SubjectID {
		return false
	}
	if f.SessionID != "" && s.SessionID != f.SessionID {
		return false
	}
	return true
}
