// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stacklok/tokencore/pkg/storage"
)

// Store implements the signing key, grant, device flow and session stores
// on one SQLite database.
type Store struct {
	wrapper *DB
	db      *sql.DB
}

var (
	_ storage.SigningKeyStore        = (*Store)(nil)
	_ storage.PersistedGrantStore    = (*Store)(nil)
	_ storage.DeviceFlowStore        = (*Store)(nil)
	_ storage.ServerSideSessionStore = (*Store)(nil)
)

// NewStore creates a Store on an opened database.
func NewStore(db *DB) *Store {
	return &Store{wrapper: db, db: db.DB()}
}

// NewStoreFromPath opens the database at path and returns a Store on it.
func NewStoreFromPath(ctx context.Context, path string) (*Store, error) {
	db, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.wrapper.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// -----------------------
// SigningKeyStore
// -----------------------

// LoadKeys returns every stored key.
func (s *Store) LoadKeys(ctx context.Context) ([]storage.SerializedKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, created, algorithm, is_x509_certificate, data, data_protected
		FROM signing_keys`)
	if err != nil {
		return nil, fmt.Errorf("querying signing keys: %w", err)
	}
	defer rows.Close()

	var keys []storage.SerializedKey
	for rows.Next() {
		var (
			key     storage.SerializedKey
			created int64
		)
		if err := rows.Scan(&key.ID, &key.Version, &created, &key.Algorithm,
			&key.IsX509Certificate, &key.Data, &key.DataProtected); err != nil {
			return nil, fmt.Errorf("scanning signing key: %w", err)
		}
		key.Created = fromNanos(created)
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating signing keys: %w", err)
	}
	return keys, nil
}

// StoreKey upserts a key.
func (s *Store) StoreKey(ctx context.Context, key storage.SerializedKey) error {
	if key.ID == "" {
		return errors.New("key id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signing_keys (id, version, created, algorithm, is_x509_certificate, data, data_protected)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			version = excluded.version,
			created = excluded.created,
			algorithm = excluded.algorithm,
			is_x509_certificate = excluded.is_x509_certificate,
			data = excluded.data,
			data_protected = excluded.data_protected`,
		key.ID, key.Version, toNanos(key.Created), key.Algorithm,
		key.IsX509Certificate, key.Data, key.DataProtected,
	)
	if err != nil {
		return fmt.Errorf("storing signing key: %w", err)
	}
	return nil
}

// DeleteKey removes a key.
func (s *Store) DeleteKey(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM signing_keys WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting signing key: %w", err)
	}
	return nil
}

// -----------------------
// PersistedGrantStore
// -----------------------

const grantColumns = `key, type, subject_id, session_id, client_id, description,
	creation_time, expiration, consumed_time, data`

// StoreGrant upserts a grant.
func (s *Store) StoreGrant(ctx context.Context, grant *storage.PersistedGrant) error {
	if grant == nil || grant.Key == "" {
		return errors.New("grant key is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persisted_grants (`+grantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			type = excluded.type,
			subject_id = excluded.subject_id,
			session_id = excluded.session_id,
			client_id = excluded.client_id,
			description = excluded.description,
			creation_time = excluded.creation_time,
			expiration = excluded.expiration,
			consumed_time = excluded.consumed_time,
			data = excluded.data`,
		grant.Key, grant.Type, grant.SubjectID, grant.SessionID, grant.ClientID, grant.Description,
		toNanos(grant.CreationTime), toNullNanos(grant.Expiration), toNullNanos(grant.ConsumedTime), grant.Data,
	)
	if err != nil {
		return fmt.Errorf("storing grant: %w", err)
	}
	return nil
}

// GetGrant returns a grant by key.
func (s *Store) GetGrant(ctx context.Context, key string) (*storage.PersistedGrant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM persisted_grants WHERE key = ?`, key)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: grant", storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetAllGrants returns the grants matching filter, oldest first.
func (s *Store) GetAllGrants(ctx context.Context, filter storage.PersistedGrantFilter) ([]*storage.PersistedGrant, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where, args := grantWhere(filter)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+grantColumns+` FROM persisted_grants WHERE `+where+` ORDER BY creation_time`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying grants: %w", err)
	}
	defer rows.Close()

	var grants []*storage.PersistedGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating grants: %w", err)
	}
	return grants, nil
}

// RemoveGrant removes a grant by key.
func (s *Store) RemoveGrant(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM persisted_grants WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing grant: %w", err)
	}
	return nil
}

// RemoveAllGrants removes the grants matching filter.
func (s *Store) RemoveAllGrants(ctx context.Context, filter storage.PersistedGrantFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	where, args := grantWhere(filter)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM persisted_grants WHERE `+where, args...); err != nil {
		return fmt.Errorf("removing grants: %w", err)
	}
	return nil
}

// RemoveExpiredGrants removes up to batchSize grants expired at now, oldest
// expiration first, and returns them.
func (s *Store) RemoveExpiredGrants(ctx context.Context, now time.Time, batchSize int) ([]storage.PersistedGrant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	rows, err := tx.QueryContext(ctx, `
		SELECT `+grantColumns+` FROM persisted_grants
		WHERE expiration IS NOT NULL AND expiration <= ?
		ORDER BY expiration
		LIMIT ?`, toNanos(now), batchLimit(batchSize))
	if err != nil {
		return nil, fmt.Errorf("querying expired grants: %w", err)
	}
	var removed []storage.PersistedGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		removed = append(removed, *g)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expired grants: %w", err)
	}

	for _, g := range removed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM persisted_grants WHERE key = ?`, g.Key); err != nil {
			return nil, fmt.Errorf("removing expired grant: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return removed, nil
}

func grantWhere(f storage.PersistedGrantFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, vals ...any) {
		clauses = append(clauses, clause)
		args = append(args, vals...)
	}
	if f.SubjectID != "" {
		add("subject_id = ?", f.SubjectID)
	}
	if f.SessionID != "" {
		add("session_id = ?", f.SessionID)
	}
	if f.ClientID != "" {
		add("client_id = ?", f.ClientID)
	}
	if len(f.ClientIDs) > 0 {
		add("client_id IN ("+placeholders(len(f.ClientIDs))+")", toAny(f.ClientIDs)...)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if len(f.Types) > 0 {
		add("type IN ("+placeholders(len(f.Types))+")", toAny(f.Types)...)
	}
	return strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func scanGrant(sc scanner) (*storage.PersistedGrant, error) {
	var (
		g                    storage.PersistedGrant
		created              int64
		expiration, consumed sql.NullInt64
	)
	err := sc.Scan(&g.Key, &g.Type, &g.SubjectID, &g.SessionID, &g.ClientID, &g.Description,
		&created, &expiration, &consumed, &g.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning grant: %w", err)
	}
	g.CreationTime = fromNanos(created)
	g.Expiration = fromNullNanos(expiration)
	g.ConsumedTime = fromNullNanos(consumed)
	return &g, nil
}

// -----------------------
// DeviceFlowStore
// -----------------------

const deviceColumns = `device_code, user_code, subject_id, session_id, client_id, description,
	creation_time, expiration, data`

// StoreDeviceAuthorization inserts a device authorization.
func (s *Store) StoreDeviceAuthorization(ctx context.Context, code *storage.DeviceCode) error {
	if code == nil || code.DeviceCode == "" || code.UserCode == "" {
		return errors.New("device code and user code are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_codes (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.DeviceCode, code.UserCode, code.SubjectID, code.SessionID, code.ClientID, code.Description,
		toNanos(code.CreationTime), toNanos(code.Expiration), code.Data,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: device code", storage.ErrAlreadyExists)
		}
		return fmt.Errorf("storing device code: %w", err)
	}
	return nil
}

// FindByUserCode returns a device authorization by user code.
func (s *Store) FindByUserCode(ctx context.Context, userCode string) (*storage.DeviceCode, error) {
	return s.findDeviceCode(ctx, "user_code", userCode)
}

// FindByDeviceCode returns a device authorization by device code.
func (s *Store) FindByDeviceCode(ctx context.Context, deviceCode string) (*storage.DeviceCode, error) {
	return s.findDeviceCode(ctx, "device_code", deviceCode)
}

func (s *Store) findDeviceCode(ctx context.Context, column, value string) (*storage.DeviceCode, error) {
	// column is one of two constants above, never caller input
	row := s.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM device_codes WHERE `+column+` = ?`, value)
	c, err := scanDeviceCode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: device code", storage.ErrNotFound)
	}
	return c, err
}

// RemoveByDeviceCode removes a device authorization.
func (s *Store) RemoveByDeviceCode(ctx context.Context, deviceCode string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM device_codes WHERE device_code = ?`, deviceCode); err != nil {
		return fmt.Errorf("removing device code: %w", err)
	}
	return nil
}

// RemoveExpiredDeviceCodes removes up to batchSize device codes expired at
// now and returns them.
func (s *Store) RemoveExpiredDeviceCodes(ctx context.Context, now time.Time, batchSize int) ([]storage.DeviceCode, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	rows, err := tx.QueryContext(ctx, `
		SELECT `+deviceColumns+` FROM device_codes
		WHERE expiration <= ?
		ORDER BY expiration
		LIMIT ?`, toNanos(now), batchLimit(batchSize))
	if err != nil {
		return nil, fmt.Errorf("querying expired device codes: %w", err)
	}
	var removed []storage.DeviceCode
	for rows.Next() {
		c, err := scanDeviceCode(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		removed = append(removed, *c)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expired device codes: %w", err)
	}

	for _, c := range removed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM device_codes WHERE device_code = ?`, c.DeviceCode); err != nil {
			return nil, fmt.Errorf("removing expired device code: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return removed, nil
}

func scanDeviceCode(sc scanner) (*storage.DeviceCode, error) {
	var (
		c                   storage.DeviceCode
		created, expiration int64
	)
	err := sc.Scan(&c.DeviceCode, &c.UserCode, &c.SubjectID, &c.SessionID, &c.ClientID, &c.Description,
		&created, &expiration, &c.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning device code: %w", err)
	}
	c.CreationTime = fromNanos(created)
	c.Expiration = fromNanos(expiration)
	return &c, nil
}

// -----------------------
// ServerSideSessionStore
// -----------------------

const sessionColumns = `key, scheme, subject_id, session_id, display_name, created, renewed, expires, ticket`

// CreateSession inserts a session.
func (s *Store) CreateSession(ctx context.Context, session *storage.ServerSideSession) error {
	if session == nil || session.Key == "" {
		return errors.New("session key is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO server_side_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.Key, session.Scheme, session.SubjectID, session.SessionID, session.DisplayName,
		toNanos(session.Created), toNanos(session.Renewed), toNullNanos(session.Expires), session.Ticket,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: session", storage.ErrAlreadyExists)
		}
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// GetSession returns a session by key.
func (s *Store) GetSession(ctx context.Context, key string) (*storage.ServerSideSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM server_side_sessions WHERE key = ?`, key)
	v, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", storage.ErrNotFound)
	}
	return v, err
}

// GetSessions returns the sessions matching filter, oldest first.
func (s *Store) GetSessions(ctx context.Context, filter storage.SessionFilter) ([]*storage.ServerSideSession, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where, args := sessionWhere(filter)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM server_side_sessions WHERE `+where+` ORDER BY created`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*storage.ServerSideSession
	for rows.Next() {
		v, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSessions removes the sessions matching filter.
func (s *Store) DeleteSessions(ctx context.Context, filter storage.SessionFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	where, args := sessionWhere(filter)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM server_side_sessions WHERE `+where, args...); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	return nil
}

func sessionWhere(f storage.SessionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.SubjectID != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, f.SubjectID)
	}
	if f.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, f.SessionID)
	}
	return strings.Join(clauses, " AND "), args
}

func scanSession(sc scanner) (*storage.ServerSideSession, error) {
	var (
		v                storage.ServerSideSession
		created, renewed int64
		expires          sql.NullInt64
	)
	err := sc.Scan(&v.Key, &v.Scheme, &v.SubjectID, &v.SessionID, &v.DisplayName,
		&created, &renewed, &expires, &v.Ticket)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	v.Created = fromNanos(created)
	v.Renewed = fromNanos(renewed)
	v.Expires = fromNullNanos(expires)
	return &v, nil
}
