// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/tokencore/pkg/config"
	"github.com/stacklok/tokencore/pkg/logger"
	"github.com/stacklok/tokencore/pkg/protect"
)

const redacted = "<redacted>"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				logger.Errorf("Configuration validation failed: %v", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (storage: %s)\n", cfg.Storage.Type)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redact(cfg))
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	cmd.AddCommand(newProtectionKeyCmd())
	return cmd
}

func newProtectionKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protection-key",
		Short: "Manage data protection keys",
		Long: `Manage data protection keys.

A key stored in the OS keyring is used when data_protection.keyring is set
in the configuration. It seals after TOKENCORE_DATA_PROTECTION_KEY and before
the keys listed in the file.`,
	}

	var store bool
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new data protection key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := protect.GenerateKey()
			if err != nil {
				return err
			}
			encoded := base64.StdEncoding.EncodeToString(k)
			if !store {
				fmt.Fprintln(cmd.OutOrStdout(), encoded)
				return nil
			}
			if err := keyring.Set(config.KeyringService, config.KeyringUser, encoded); err != nil {
				return fmt.Errorf("failed to store key in the OS keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Data protection key stored in the OS keyring (service %s)\n", config.KeyringService)
			return nil
		},
	}
	generate.Flags().BoolVar(&store, "keyring", false, "Store the key in the OS keyring instead of printing it")

	cmd.AddCommand(generate)
	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store a data protection key in the OS keyring",
		Long: `Store a base64 encoded data protection key in the OS keyring.

The key is read from stdin when data is piped to the command:
  tokencore config protection-key generate | tokencore config protection-key set

Otherwise you are prompted for it and the input is hidden.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			encoded, err := readSecret(cmd, "Enter data protection key (input will be hidden): ")
			if err != nil {
				return err
			}
			if _, err := protect.DecodeKey(encoded); err != nil {
				return err
			}
			if err := keyring.Set(config.KeyringService, config.KeyringUser, encoded); err != nil {
				return fmt.Errorf("failed to store key in the OS keyring: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Data protection key stored in the OS keyring")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the data protection key from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := keyring.Delete(config.KeyringService, config.KeyringUser)
			if errors.Is(err, keyring.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No data protection key in the OS keyring")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to delete key from the OS keyring: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Data protection key removed from the OS keyring")
			return nil
		},
	})
	return cmd
}

// readSecret reads a single value from the command input. A terminal is
// prompted with echo disabled; anything else is read to EOF.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) { // #nosec G115 -- file descriptors fit in int
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read from terminal: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	v := strings.TrimSpace(string(b))
	if v == "" {
		return "", errors.New("no input")
	}
	return v, nil
}

// redact returns a copy of cfg without secrets.
func redact(cfg *config.Config) *config.Config {
	c := *cfg
	if c.Storage.Redis != nil && c.Storage.Redis.ACLUserConfig != nil {
		r := *c.Storage.Redis
		acl := *r.ACLUserConfig
		if acl.Password != "" {
			acl.Password = redacted
		}
		r.ACLUserConfig = &acl
		c.Storage.Redis = &r
	}
	if len(c.DataProtection.Keys) > 0 {
		keys := make([]string, len(c.DataProtection.Keys))
		for i := range keys {
			keys[i] = redacted
		}
		c.DataProtection.Keys = keys
	}
	if len(c.Telemetry.Headers) > 0 {
		headers := make(map[string]string, len(c.Telemetry.Headers))
		for k := range c.Telemetry.Headers {
			headers[k] = redacted
		}
		c.Telemetry.Headers = headers
	}
	return &c
}
