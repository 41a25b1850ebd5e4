// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/stacklok/tokencore/pkg/codec"
	"github.com/stacklok/tokencore/pkg/dpop"
	"github.com/stacklok/tokencore/pkg/grants"
	"github.com/stacklok/tokencore/pkg/keys"
	"github.com/stacklok/tokencore/pkg/par"
	"github.com/stacklok/tokencore/pkg/protect"
	"github.com/stacklok/tokencore/pkg/storage"
)

// DPoPOptions returns the proof validation options.
func (c *Config) DPoPOptions() dpop.Options {
	o := dpop.DefaultOptions()
	if c.DPoP.ValidateIat != nil {
		o.ValidateIat = *c.DPoP.ValidateIat
	}
	o.ValidateNonce = c.DPoP.ValidateNonce
	o.ProofTokenValidityDuration = time.Duration(c.DPoP.ProofTokenValidityDuration)
	if c.DPoP.ClientClockSkew != nil {
		o.ClientClockSkew = time.Duration(*c.DPoP.ClientClockSkew)
	}
	o.ServerClockSkew = time.Duration(c.DPoP.ServerClockSkew)

	algs := codec.DecodeAllowedSigningAlgorithms(c.DPoP.SupportedAlgorithms)
	for _, a := range sets.List(algs) {
		o.SupportedAlgorithms = append(o.SupportedAlgorithms, jose.SignatureAlgorithm(a))
	}
	return o
}

// KeysOptions returns the key rotation options.
func (c *Config) KeysOptions() keys.Options {
	algorithms := make([]keys.SigningAlgorithmOptions, 0, len(c.Keys.SigningAlgorithms))
	for _, a := range c.Keys.SigningAlgorithms {
		algorithms = append(algorithms, keys.SigningAlgorithmOptions{
			Name:               a.Name,
			UseX509Certificate: a.UseX509Certificate,
		})
	}
	return keys.Options{
		RotationInterval:               time.Duration(c.Keys.RotationInterval),
		PropagationTime:                time.Duration(c.Keys.PropagationTime),
		RetentionDuration:              time.Duration(c.Keys.RetentionDuration),
		KeyCacheDuration:               time.Duration(c.Keys.KeyCacheDuration),
		InitializationDuration:         time.Duration(c.Keys.InitializationDuration),
		InitializationKeyCacheDuration: time.Duration(c.Keys.InitializationKeyCacheDuration),
		LockTimeout:                    time.Duration(c.Keys.LockTimeout),
		SigningAlgorithms:              algorithms,
	}
}

// CleanupOptions returns the token cleanup options.
func (c *Config) CleanupOptions() grants.CleanupOptions {
	o := grants.DefaultCleanupOptions()
	o.Interval = time.Duration(c.Cleanup.Interval)
	o.BatchSize = c.Cleanup.BatchSize
	o.BatchesPerSecond = c.Cleanup.BatchesPerSecond
	return o
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if err := c.DPoPOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dpop: %w", err))
	}
	if err := c.KeysOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("keys: %w", err))
	}
	if time.Duration(c.PAR.DefaultLifetime) < par.MinLifetime {
		errs = append(errs, errors.New("par: default lifetime must be at least one second"))
	}
	if err := c.Storage.validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if c.CleanupEnabled() {
		if err := c.CleanupOptions().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("cleanup: %w", err))
		}
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	for i, k := range c.DataProtection.Keys {
		if _, err := protect.DecodeKey(k); err != nil {
			errs = append(errs, fmt.Errorf("data_protection: key %d: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (s StorageConfig) validate() error {
	if !s.Type.IsValid() {
		return fmt.Errorf("unsupported storage type %q", s.Type)
	}
	switch s.Type {
	case storage.TypeRedis:
		if s.Redis == nil {
			return errors.New("redis configuration is required for the redis storage type")
		}
	case storage.TypeSQLite:
		if s.SQLite.Path == "" {
			return errors.New("sqlite path is required for the sqlite storage type")
		}
	case storage.TypeFile:
		if s.File.KeyDirectory == "" {
			return errors.New("key directory is required for the file storage type")
		}
	case storage.TypeMemory:
	}
	return nil
}
