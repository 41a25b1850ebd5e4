// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/tokencore/pkg/storage"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreFromPath(t.Context(), filepath.Join(t.TempDir(), "tokencore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "tokencore.db")

	db, err := Open(t.Context(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var count int
	require.NoError(t, db.DB().QueryRowContext(t.Context(),
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'persisted_grants'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := Open(t.Context(), "")
	assert.Error(t, err)
}

func TestStore_SigningKeys(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := t.Context()

	key := storage.SerializedKey{
		ID:                "kid-1",
		Version:           1,
		Created:           testNow,
		Algorithm:         "RS256",
		IsX509Certificate: true,
		Data:              "sealed",
		DataProtected:     true,
	}
	require.NoError(t, s.StoreKey(ctx, key))

	keys, err := s.LoadKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key, keys[0])

	key.Data = "resealed"
	require.NoError(t, s.StoreKey(ctx, key))
	keys, err = s.LoadKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "resealed", keys[0].Data)

	require.NoError(t, s.DeleteKey(ctx, "kid-1"))
	keys, err = s.LoadKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_Grants(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := t.Context()

	grants := []*storage.PersistedGrant{
		{Key: "g1", Type: storage.GrantTypeRefreshToken, SubjectID: "alice", SessionID: "s1", ClientID: "c1",
			CreationTime: testNow, Expiration: ptr(testNow.Add(time.Hour)), Data: "{}"},
		{Key: "g2", Type: storage.GrantTypeUserConsent, SubjectID: "alice", ClientID: "c2",
			CreationTime: testNow.Add(time.Second)},
		{Key: "g3", Type: storage.GrantTypeRefreshToken, SubjectID: "bob", ClientID: "c1",
			CreationTime: testNow.Add(2 * time.Second), ConsumedTime: ptr(testNow)},
	}
	for _, g := range grants {
		require.NoError(t, s.StoreGrant(ctx, g))
	}

	got, err := s.GetGrant(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, grants[0], got)

	_, err = s.GetGrant(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	tests := []struct {
		name   string
		filter storage.PersistedGrantFilter
		want   []string
	}{
		{"subject", storage.PersistedGrantFilter{SubjectID: "alice"}, []string{"g1", "g2"}},
		{"client and type", storage.PersistedGrantFilter{ClientID: "c1", Type: storage.GrantTypeRefreshToken}, []string{"g1", "g3"}},
		{"client list", storage.PersistedGrantFilter{ClientIDs: []string{"c2", "c9"}}, []string{"g2"}},
		{"type list", storage.PersistedGrantFilter{SubjectID: "alice", Types: []string{storage.GrantTypeUserConsent}}, []string{"g2"}},
		{"session", storage.PersistedGrantFilter{SessionID: "s1"}, []string{"g1"}},
		{"no match", storage.PersistedGrantFilter{SubjectID: "carol"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.GetAllGrants(ctx, tt.filter)
			require.NoError(t, err)
			var keys []string
			for _, g := range result {
				keys = append(keys, g.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}

	_, err = s.GetAllGrants(ctx, storage.PersistedGrantFilter{})
	assert.ErrorIs(t, err, storage.ErrInvalidFilter)
	assert.ErrorIs(t, s.RemoveAllGrants(ctx, storage.PersistedGrantFilter{}), storage.ErrInvalidFilter)

	require.NoError(t, s.RemoveAllGrants(ctx, storage.PersistedGrantFilter{SubjectID: "alice", ClientID: "c1"}))
	_, err = s.GetGrant(ctx, "g1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetGrant(ctx, "g2")
	require.NoError(t, err)

	require.NoError(t, s.RemoveGrant(ctx, "g2"))
	_, err = s.GetGrant(ctx, "g2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RemoveExpiredGrants(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := t.Context()

	for i := range 5 {
		require.NoError(t, s.StoreGrant(ctx, &storage.PersistedGrant{
			Key:          fmt.Sprintf("exp-%d", i),
			Type:         storage.GrantTypeRefreshToken,
			SubjectID:    "alice",
			ClientID:     "c1",
			CreationTime: testNow.Add(-time.Hour),
			Expiration:   ptr(testNow.Add(-time.Duration(5-i) * time.Minute)),
		}))
	}
	require.NoError(t, s.StoreGrant(ctx, &storage.PersistedGrant{
		Key: "live", Type: storage.GrantTypeRefreshToken, ClientID: "c1", SubjectID: "alice",
		CreationTime: testNow, Expiration: ptr(testNow.Add(time.Hour)),
	}))
	require.NoError(t, s.StoreGrant(ctx, &storage.PersistedGrant{
		Key: "forever", Type: storage.GrantTypeUserConsent, ClientID: "c1", SubjectID: "alice", CreationTime: testNow,
	}))

	removed, err := s.RemoveExpiredGrants(ctx, testNow, 2)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "exp-0", removed[0].Key)
	assert.Equal(t, "exp-1", removed[1].Key)

	removed, err = s.RemoveExpiredGrants(ctx, testNow, 0)
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	remaining, err := s.GetAllGrants(ctx, storage.PersistedGrantFilter{SubjectID: "alice"})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestStore_DeviceCodes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := t.Context()

	code := &storage.DeviceCode{
		DeviceCode: "dc1", UserCode: "UC-1", ClientID: "c1",
		CreationTime: testNow, Expiration: testNow.Add(-time.Second),
	}
	require.NoError(t, s.StoreDeviceAuthorization(ctx, code))
	assert.ErrorIs(t, s.StoreDeviceAuthorization(ctx, code), storage.ErrAlreadyExists)
	assert.ErrorIs(t, s.StoreDeviceAuthorization(ctx, &storage.DeviceCode{
		DeviceCode: "dc2", UserCode: "UC-1", ClientID: "c1", Expiration: testNow,
	}), storage.ErrAlreadyExists)

	byUser, err := s.FindByUserCode(ctx, "UC-1")
	require.NoError(t, err)
	assert.Equal(t, code, byUser)
	byDevice, err := s.FindByDeviceCode(ctx, "dc1")
	require.NoError(t, err)
	assert.Equal(t, code, byDevice)
	_, err = s.FindByUserCode(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.StoreDeviceAuthorization(ctx, &storage.DeviceCode{
		DeviceCode: "dc3", UserCode: "UC-3", ClientID: "c1", Expiration: testNow.Add(time.Hour),
	}))

	removed, err := s.RemoveExpiredDeviceCodes(ctx, testNow, 10)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "dc1", removed[0].DeviceCode)

	require.NoError(t, s.RemoveByDeviceCode(ctx, "dc3"))
	_, err = s.FindByDeviceCode(ctx, "dc3")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Sessions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := t.Context()

	first := &storage.ServerSideSession{
		Key: "a1", Scheme: "cookie", SubjectID: "alice", SessionID: "s1", DisplayName: "Alice",
		Created: testNow, Renewed: testNow, Expires: ptr(testNow.Add(time.Hour)), Ticket: "t",
	}
	require.NoError(t, s.CreateSession(ctx, first))
	require.NoError(t, s.CreateSession(ctx, &storage.ServerSideSession{
		Key: "a2", SubjectID: "alice", SessionID: "s2", Created: testNow.Add(time.Second), Renewed: testNow,
	}))
	assert.ErrorIs(t, s.CreateSession(ctx, first), storage.ErrAlreadyExists)

	got, err := s.GetSession(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	sessions, err := s.GetSessions(ctx, storage.SessionFilter{SubjectID: "alice"})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a1", sessions[0].Key)

	_, err = s.GetSessions(ctx, storage.SessionFilter{})
	assert.ErrorIs(t, err, storage.ErrInvalidFilter)
	assert.ErrorIs(t, s.DeleteSessions(ctx, storage.SessionFilter{}), storage.ErrInvalidFilter)

	require.NoError(t, s.DeleteSessions(ctx, storage.SessionFilter{SessionID: "s2"}))
	_, err = s.GetSession(ctx, "a2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
