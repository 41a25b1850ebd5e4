// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import "time"

// Type defines the type of storage backend.
type Type string

const (
	// TypeMemory uses in-memory storage (default).
	TypeMemory Type = "memory"

	// TypeRedis uses Redis Sentinel for keys and pushed authorization requests.
	TypeRedis Type = "redis"

	// TypeSQLite uses a SQLite database file for every store.
	TypeSQLite Type = "sqlite"

	// TypeFile keeps signing keys as JSON files in a directory.
	TypeFile Type = "file"

	// DefaultCleanupInterval is how often the in-memory store drops expired entries.
	DefaultCleanupInterval = 5 * time.Minute
)

// IsValid reports whether t names a supported backend.
func (t Type) IsValid() bool {
	switch t {
	case TypeMemory, TypeRedis, TypeSQLite, TypeFile:
		return true
	}
	return false
}
