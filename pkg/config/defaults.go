// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/stacklok/tokencore/pkg/dpop"
	"github.com/stacklok/tokencore/pkg/grants"
	"github.com/stacklok/tokencore/pkg/keys"
	"github.com/stacklok/tokencore/pkg/par"
	"github.com/stacklok/tokencore/pkg/storage"
	"github.com/stacklok/tokencore/pkg/telemetry"
)

// Default returns a fully populated configuration. It is the single source
// of default values; every other layer fills from it.
func Default() *Config {
	validateIat := true
	cleanupEnabled := true
	clientSkew := Duration(dpop.DefaultClientClockSkew)

	keyDefaults := keys.DefaultOptions()
	algorithms := make([]SigningAlgorithm, 0, len(keyDefaults.SigningAlgorithms))
	for _, a := range keyDefaults.SigningAlgorithms {
		algorithms = append(algorithms, SigningAlgorithm{Name: a.Name, UseX509Certificate: a.UseX509Certificate})
	}
	cleanupDefaults := grants.DefaultCleanupOptions()

	return &Config{
		DPoP: DPoPConfig{
			ValidateIat:                &validateIat,
			ProofTokenValidityDuration: Duration(dpop.DefaultProofTokenValidityDuration),
			ClientClockSkew:            &clientSkew,
			ServerClockSkew:            Duration(dpop.DefaultServerClockSkew),
		},
		Keys: KeysConfig{
			RotationInterval:               Duration(keyDefaults.RotationInterval),
			PropagationTime:                Duration(keyDefaults.PropagationTime),
			RetentionDuration:              Duration(keyDefaults.RetentionDuration),
			KeyCacheDuration:               Duration(keyDefaults.KeyCacheDuration),
			InitializationDuration:         Duration(keyDefaults.InitializationDuration),
			InitializationKeyCacheDuration: Duration(keyDefaults.InitializationKeyCacheDuration),
			LockTimeout:                    Duration(keyDefaults.LockTimeout),
			SigningAlgorithms:              algorithms,
		},
		PAR: PARConfig{
			DefaultLifetime: Duration(par.DefaultLifetime),
		},
		Storage: StorageConfig{
			Type: storage.TypeMemory,
		},
		Cleanup: CleanupConfig{
			Enabled:   &cleanupEnabled,
			Interval:  Duration(cleanupDefaults.Interval),
			BatchSize: cleanupDefaults.BatchSize,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// ApplyDefaults fills every zero or nil field of c from Default while
// keeping the values that were set. Pointer fields set to false or zero
// are kept as well.
func (c *Config) ApplyDefaults() error {
	if c == nil {
		return nil
	}
	if err := mergo.Merge(c, Default(), mergo.WithoutDereference); err != nil {
		return fmt.Errorf("failed to apply configuration defaults: %w", err)
	}
	return nil
}
