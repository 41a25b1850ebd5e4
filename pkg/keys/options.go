// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"errors"
	"fmt"
	"time"
)

// Default lifecycle settings.
const (
	DefaultRotationInterval               = 90 * 24 * time.Hour
	DefaultPropagationTime                = 14 * 24 * time.Hour
	DefaultRetentionDuration              = 14 * 24 * time.Hour
	DefaultKeyCacheDuration               = 24 * time.Hour
	DefaultInitializationDuration         = 5 * time.Minute
	DefaultInitializationKeyCacheDuration = time.Minute
	DefaultLockTimeout                    = 5 * time.Second

	// DefaultAlgorithm is used when no signing algorithm is configured.
	DefaultAlgorithm = "RS256"
)

// SigningAlgorithmOptions configures keys for one algorithm.
type SigningAlgorithmOptions struct {
	Name string `yaml:"name"`

	// UseX509Certificate publishes each key with a self-signed certificate.
	UseX509Certificate bool `yaml:"use_x509_certificate"`
}

// Options controls key rotation.
type Options struct {
	// RotationInterval is how long a key signs before it retires.
	RotationInterval time.Duration

	// PropagationTime is how long a new key is published before it signs.
	// Rotation starts this long before the active key reaches RotationInterval.
	PropagationTime time.Duration

	// RetentionDuration is how long a retiring key stays published.
	RetentionDuration time.Duration

	// KeyCacheDuration bounds how long loaded keys are cached.
	KeyCacheDuration time.Duration

	// InitializationDuration is the window after a key is created during
	// which InitializationKeyCacheDuration applies instead.
	InitializationDuration         time.Duration
	InitializationKeyCacheDuration time.Duration

	// LockTimeout bounds the wait for the key generation lock.
	LockTimeout time.Duration

	// SigningAlgorithms are the algorithms keys are kept for. The first one
	// is the default signing algorithm.
	SigningAlgorithms []SigningAlgorithmOptions
}

// DefaultOptions returns the default rotation settings.
func DefaultOptions() Options {
	return Options{
		RotationInterval:               DefaultRotationInterval,
		PropagationTime:                DefaultPropagationTime,
		RetentionDuration:              DefaultRetentionDuration,
		KeyCacheDuration:               DefaultKeyCacheDuration,
		InitializationDuration:         DefaultInitializationDuration,
		InitializationKeyCacheDuration: DefaultInitializationKeyCacheDuration,
		LockTimeout:                    DefaultLockTimeout,
		SigningAlgorithms:              []SigningAlgorithmOptions{{Name: DefaultAlgorithm}},
	}
}

// Validate checks that the options describe a workable rotation schedule.
func (o Options) Validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"rotation interval", o.RotationInterval},
		{"propagation time", o.PropagationTime},
		{"retention duration", o.RetentionDuration},
		{"key cache duration", o.KeyCacheDuration},
		{"initialization duration", o.InitializationDuration},
		{"initialization key cache duration", o.InitializationKeyCacheDuration},
		{"lock timeout", o.LockTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}

	if o.PropagationTime >= o.RotationInterval {
		return errors.New("propagation time must be shorter than the rotation interval")
	}
	if o.KeyCacheDuration > o.PropagationTime {
		return errors.New("key cache duration must not exceed the propagation time")
	}

	if len(o.SigningAlgorithms) == 0 {
		return errors.New("at least one signing algorithm is required")
	}
	seen := make(map[string]bool, len(o.SigningAlgorithms))
	for _, alg := range o.SigningAlgorithms {
		if !IsSupportedAlgorithm(alg.Name) {
			return fmt.Errorf("unsupported signing algorithm %q", alg.Name)
		}
		if seen[alg.Name] {
			return fmt.Errorf("duplicate signing algorithm %q", alg.Name)
		}
		seen[alg.Name] = true
	}
	return nil
}

func (o Options) algorithm(name string) (SigningAlgorithmOptions, bool) {
	for _, alg := range o.SigningAlgorithms {
		if alg.Name == name {
			return alg, true
		}
	}
	return SigningAlgorithmOptions{}, false
}
