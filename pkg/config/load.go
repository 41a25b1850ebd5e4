// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-core/env"

	"github.com/stacklok/tokencore/pkg/codec"
	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/protect"
)

// DataProtectionKeyEnv supplies a data protection key outside the file. When
// set it seals, and the configured keys remain usable for unsealing.
const DataProtectionKeyEnv = "TOKENCORE_DATA_PROTECTION_KEY"

// Keyring entry holding a data protection key when data_protection.keyring
// is set.
const (
	KeyringService = "tokencore"
	KeyringUser    = "data-protection-key"
)

// Load reads the configuration at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		logger.Debugf("no configuration file given, using defaults")
		return Default(), nil
	}

	// #nosec G304: the path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse checks the document against the configuration schema, decodes it,
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file yaml: %w", err)
	}
	if err := c.ApplyDefaults(); err != nil {
		return nil, err
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize rewrites list-valued strings into their canonical form.
func (c *Config) normalize() {
	c.DPoP.SupportedAlgorithms = codec.EncodeAllowedSigningAlgorithms(
		codec.DecodeAllowedSigningAlgorithms(c.DPoP.SupportedAlgorithms))
}

// ProtectionKeys decodes the data protection keys in sealing order: the key
// from DataProtectionKeyEnv, then the keyring key, then the configured keys.
// It returns no keys and no error when none are configured.
func (c *Config) ProtectionKeys(envReader env.Reader) ([][]byte, error) {
	var encoded []string
	if k := envReader.Getenv(DataProtectionKeyEnv); k != "" {
		encoded = append(encoded, k)
	}
	if c.DataProtection.Keyring {
		k, err := keyring.Get(KeyringService, KeyringUser)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			logger.Warnf("data_protection.keyring is set but the OS keyring has no %s entry", KeyringUser)
		case err != nil:
			return nil, fmt.Errorf("OS keyring is not available: %w", err)
		default:
			encoded = append(encoded, k)
		}
	}
	encoded = append(encoded, c.DataProtection.Keys...)

	out := make([][]byte, 0, len(encoded))
	for i, e := range encoded {
		k, err := protect.DecodeKey(e)
		if err != nil {
			return nil, fmt.Errorf("data protection key %d: %w", i, err)
		}
		out = append(out, k)
	}
	return out, nil
}

// Protector returns a protector for purpose over the configured keys, or
// nil when no keys are configured.
func (c *Config) Protector(envReader env.Reader, purpose string) (protect.Protector, error) {
	ks, err := c.ProtectionKeys(envReader)
	if err != nil {
		return nil, err
	}
	if len(ks) == 0 {
		return nil, nil
	}
	p, err := protect.New(purpose, ks...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s protector: %w", purpose, err)
	}
	return p, nil
}
