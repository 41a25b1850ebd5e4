// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the tokencore command-line application.
package app

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"

	"github.com/stacklok/tokencore/pkg/logger"
)

// NewRootCmd creates a new root command for the tokencore CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "tokencore",
		DisableAutoGenTag: true,
		Short:             "tokencore manages signing keys, DPoP proofs and grants of an OAuth server",
		Long: `tokencore operates the token infrastructure of an OAuth 2.0 / OpenID Connect server.

It rotates and publishes signing keys, mints and validates DPoP proofs,
stores pushed authorization requests, and lists, revokes and cleans up
persisted grants. Every command works against the storage backend named
in the configuration file.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the tokencore configuration file")
	err = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	if err != nil {
		logger.Errorf("Error binding config flag: %v", err)
	}

	// Add subcommands
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newDPoPCmd())
	rootCmd.AddCommand(newPARCmd())
	rootCmd.AddCommand(newGrantsCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}

// withRuntime loads the configuration, opens its storage and runs fn.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, cfg, &env.OSReader{})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warnf("Failed to close storage: %v", err)
		}
	}()
	return fn(ctx, rt)
}
