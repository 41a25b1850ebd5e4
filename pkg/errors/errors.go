// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the typed error used at tokencore package boundaries.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrInvalidArgument is returned when a caller passes an unusable value
	ErrInvalidArgument = "invalid_argument"

	// ErrStore is returned when a durable store cannot complete an operation
	ErrStore = "store"

	// ErrConfiguration is returned when configuration is missing or inconsistent
	ErrConfiguration = "configuration"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewStoreError creates a new store error
func NewStoreError(message string, cause error) *Error {
	return NewError(ErrStore, message, cause)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, cause error) *Error {
	return NewError(ErrConfiguration, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// IsInvalidArgument reports whether any error in err's chain is an invalid argument error
func IsInvalidArgument(err error) bool {
	return hasType(err, ErrInvalidArgument)
}

// IsStore reports whether any error in err's chain is a store error
func IsStore(err error) bool {
	return hasType(err, ErrStore)
}

// IsConfiguration reports whether any error in err's chain is a configuration error
func IsConfiguration(err error) bool {
	return hasType(err, ErrConfiguration)
}

// IsInternal reports whether any error in err's chain is an internal error
func IsInternal(err error) bool {
	return hasType(err, ErrInternal)
}

func hasType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}
