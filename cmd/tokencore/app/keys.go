// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/stacklok/tokencore/cmd/tokencore/app/ui"
	"github.com/stacklok/tokencore/pkg/codec"
	"github.com/stacklok/tokencore/pkg/keys"
	"github.com/stacklok/tokencore/pkg/logger"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys",
		Long:  "List, rotate, import and publish the signing keys kept in the configured storage.",
	}
	cmd.AddCommand(newKeysListCmd())
	cmd.AddCommand(newKeysRotateCmd())
	cmd.AddCommand(newKeysJWKSCmd())
	cmd.AddCommand(newKeysImportCmd())
	cmd.AddCommand(newKeysSignCmd())
	cmd.AddCommand(newKeysVerifyCmd())
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored signing keys and their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				m, err := rt.keyManager()
				if err != nil {
					return err
				}
				statuses, err := m.ListKeys(ctx)
				if err != nil {
					return fmt.Errorf("failed to list keys: %w", err)
				}
				return ui.RenderKeyTable(cmd.OutOrStdout(), statuses)
			})
		},
	}
}

func newKeysRotateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Run a key rotation pass",
		Long: `Run a key rotation pass. Retired keys are deleted and a new key is created
for every algorithm whose active key is due for rotation. With --force a new
key is created for every configured algorithm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				m, err := rt.keyManager()
				if err != nil {
					return err
				}
				created, err := m.Rotate(ctx, force)
				if err != nil {
					return fmt.Errorf("key rotation failed: %w", err)
				}
				if len(created) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No keys were due for rotation.")
					return nil
				}
				for _, k := range created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s key %s\n", k.Algorithm, k.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Create a new key for every algorithm")
	return cmd
}

func newKeysJWKSCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jwks",
		Short: "Print the published JSON Web Key Set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				m, err := rt.keyManager()
				if err != nil {
					return err
				}
				set, err := m.PublicJWKS(ctx)
				if err != nil {
					return fmt.Errorf("failed to load keys: %w", err)
				}
				out, err := json.MarshalIndent(set, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode key set: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func newKeysImportCmd() *cobra.Command {
	var (
		path        string
		alg         string
		certificate bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a PEM encoded private key",
		Long: `Import an RSA or EC private key in PKCS#1, SEC 1 or PKCS#8 PEM form. The key
joins rotation as if it had been generated now. The algorithm is derived from
the key unless --alg is given, and must be one of the configured algorithms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keys.LoadSigningKey(path)
			if err != nil {
				return err
			}
			if alg == "" {
				if alg, err = keys.DeriveAlgorithm(key); err != nil {
					return err
				}
			}

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				m, err := rt.keyManager()
				if err != nil {
					return err
				}
				opts := rt.cfg.KeysOptions()
				k, err := keys.NewKeyContainer(key, alg, time.Now(), certificate,
					opts.RotationInterval+opts.RetentionDuration)
				if err != nil {
					return err
				}
				if err := m.Import(ctx, k); err != nil {
					return fmt.Errorf("failed to import key: %w", err)
				}
				logger.Infof("Imported %s key %s", k.Algorithm, k.ID)
				fmt.Fprintln(cmd.OutOrStdout(), k.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Path to the PEM encoded private key")
	cmd.Flags().StringVar(&alg, "alg", "", "Signing algorithm (derived from the key by default)")
	cmd.Flags().BoolVar(&certificate, "x509", false, "Publish the key with a self-signed certificate")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newKeysSignCmd() *cobra.Command {
	var (
		claims   string
		lifetime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a JWT with the current signing key",
		Long: `Sign a JWT with the current default signing key. --claims is a JSON object of
string claims. iat and exp are set from the current time and --lifetime.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			props, err := codec.DecodeProperties(claims)
			if err != nil {
				return err
			}
			mc := jwt.MapClaims{}
			for k, v := range props {
				mc[k] = v
			}
			now := time.Now()
			mc["iat"] = jwt.NewNumericDate(now)
			mc["exp"] = jwt.NewNumericDate(now.Add(lifetime))

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				m, err := rt.keyManager()
				if err != nil {
					return err
				}
				token, err := keys.NewSigner(m).Sign(ctx, mc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&claims, "claims", "", `Claims as a JSON object, e.g. '{"sub":"alice"}'`)
	cmd.Flags().DurationVar(&lifetime, "lifetime", 5*time.Minute, "Token lifetime")
	return cmd
}

func newKeysVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a JWT against the published keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				m, err := rt.keyManager()
				if err != nil {
					return err
				}
				claims, err := keys.NewSigner(m).Parse(ctx, args[0])
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(claims, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode claims: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}
