// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the tokencore YAML configuration file.
//
// Unset fields take their defaults from [Default]; the result is validated
// before it is returned. The typed accessors convert each section into the
// options struct of the package that consumes it.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stacklok/tokencore/pkg/storage"
	"github.com/stacklok/tokencore/pkg/telemetry"
)

// Duration is a time.Duration that marshals as a duration string such as
// "90s" or "2160h".
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(dur)
	return nil
}

// Config is the complete tokencore configuration.
type Config struct {
	DPoP           DPoPConfig           `yaml:"dpop" json:"dpop"`
	Keys           KeysConfig           `yaml:"keys" json:"keys"`
	PAR            PARConfig            `yaml:"par" json:"par"`
	Storage        StorageConfig        `yaml:"storage" json:"storage"`
	Cleanup        CleanupConfig        `yaml:"cleanup" json:"cleanup"`
	DataProtection DataProtectionConfig `yaml:"data_protection" json:"data_protection"`
	Telemetry      telemetry.Config     `yaml:"telemetry" json:"telemetry"`
}

// DPoPConfig configures proof validation.
type DPoPConfig struct {
	// ValidateIat enables the issued-at window check.
	ValidateIat *bool `yaml:"validate_iat,omitempty" json:"validate_iat,omitempty"`

	// ValidateNonce requires a server-issued or expected nonce in every proof.
	ValidateNonce bool `yaml:"validate_nonce" json:"validate_nonce"`

	ProofTokenValidityDuration Duration `yaml:"proof_token_validity_duration" json:"proof_token_validity_duration"`

	// ClientClockSkew is a pointer so that an explicit "0s" is kept.
	ClientClockSkew *Duration `yaml:"client_clock_skew,omitempty" json:"client_clock_skew,omitempty"`
	ServerClockSkew Duration  `yaml:"server_clock_skew" json:"server_clock_skew"`

	// SupportedAlgorithms is a comma separated list such as "ES256,PS256".
	// Empty allows every asymmetric algorithm.
	SupportedAlgorithms string `yaml:"supported_algorithms" json:"supported_algorithms"`
}

// KeysConfig configures signing key rotation.
type KeysConfig struct {
	RotationInterval               Duration `yaml:"rotation_interval" json:"rotation_interval"`
	PropagationTime                Duration `yaml:"propagation_time" json:"propagation_time"`
	RetentionDuration              Duration `yaml:"retention_duration" json:"retention_duration"`
	KeyCacheDuration               Duration `yaml:"key_cache_duration" json:"key_cache_duration"`
	InitializationDuration         Duration `yaml:"initialization_duration" json:"initialization_duration"`
	InitializationKeyCacheDuration Duration `yaml:"initialization_key_cache_duration" json:"initialization_key_cache_duration"`
	LockTimeout                    Duration `yaml:"lock_timeout" json:"lock_timeout"`

	SigningAlgorithms []SigningAlgorithm `yaml:"signing_algorithms" json:"signing_algorithms"`
}

// SigningAlgorithm configures keys for one algorithm.
type SigningAlgorithm struct {
	Name               string `yaml:"name" json:"name"`
	UseX509Certificate bool   `yaml:"use_x509_certificate" json:"use_x509_certificate"`
}

// PARConfig configures pushed authorization requests.
type PARConfig struct {
	DefaultLifetime Duration `yaml:"default_lifetime" json:"default_lifetime"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type   storage.Type         `yaml:"type" json:"type"`
	Redis  *storage.RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
	SQLite SQLiteConfig         `yaml:"sqlite" json:"sqlite"`
	File   FileStorageConfig    `yaml:"file" json:"file"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// FileStorageConfig configures the file key store.
type FileStorageConfig struct {
	KeyDirectory string `yaml:"key_directory" json:"key_directory"`
}

// CleanupConfig configures background removal of expired grants.
type CleanupConfig struct {
	Enabled   *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Interval  Duration `yaml:"interval" json:"interval"`
	BatchSize int      `yaml:"batch_size" json:"batch_size"`

	// BatchesPerSecond throttles store calls; zero means unlimited.
	BatchesPerSecond float64 `yaml:"batches_per_second,omitempty" json:"batches_per_second,omitempty"`
}

// DataProtectionConfig holds the keys that seal signing keys at rest and
// DPoP nonces. Each key is 32 bytes, base64 encoded; the first one seals.
type DataProtectionConfig struct {
	Keys []string `yaml:"keys" json:"keys"`

	// Keyring reads an additional key from the OS keyring, stored there by
	// "tokencore config protection-key".
	Keyring bool `yaml:"keyring,omitempty" json:"keyring,omitempty"`
}

// CleanupEnabled reports whether background cleanup should run.
func (c *Config) CleanupEnabled() bool {
	return c.Cleanup.Enabled == nil || *c.Cleanup.Enabled
}
