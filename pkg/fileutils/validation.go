// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package fileutils provides file operation utilities including atomic writes
// and path validation for security.
package fileutils

import (
	"errors"
	"fmt"
	"regexp"
)

const maxKeyIDLength = 128

// key IDs are RFC 7638 thumbprints, base64url without padding
var keyIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrInvalidKeyID is returned when a key ID cannot be used as a file name.
var ErrInvalidKeyID = errors.New("invalid key id for path construction")

// ValidateKeyIDForPath ensures a key identifier is safe to use as a file
// name inside a key directory. Only the base64url alphabet is accepted, which
// excludes path separators, dots and null bytes.
func ValidateKeyIDForPath(keyID string) error {
	if keyID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKeyID)
	}
	if len(keyID) > maxKeyIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidKeyID, maxKeyIDLength)
	}
	if !keyIDPattern.MatchString(keyID) {
		return fmt.Errorf("%w: %q", ErrInvalidKeyID, keyID)
	}
	return nil
}
