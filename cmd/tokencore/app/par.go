// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/tokencore/pkg/codec"
	"github.com/stacklok/tokencore/pkg/par"
)

func newPARCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "par",
		Short: "Store and read pushed authorization requests",
		Long: `Store and read pushed authorization requests (RFC 9126). Requests outlive
the command only with the redis storage type.`,
	}
	cmd.AddCommand(newPARPushCmd())
	cmd.AddCommand(newPARGetCmd())
	return cmd
}

func newPARPushCmd() *cobra.Command {
	var (
		clientID string
		params   string
		lifetime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Store authorization parameters and print the request_uri",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			props, err := codec.DecodeProperties(params)
			if err != nil {
				return err
			}
			values := url.Values{}
			for k, v := range props {
				values.Set(k, v)
			}
			values.Set("client_id", clientID)

			client := par.Client{ClientID: clientID}
			if cmd.Flags().Changed("lifetime") {
				client.PushedAuthorizationLifetime = &lifetime
			}

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				svc, err := rt.parService()
				if err != nil {
					return err
				}
				resp, err := svc.Store(ctx, client, values)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "request_uri: %s\nexpires_in: %d\n", resp.RequestURI, resp.ExpiresIn)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "Client the request belongs to")
	cmd.Flags().StringVar(&params, "params", "", `Authorization parameters as a JSON object, e.g. '{"scope":"openid"}'`)
	cmd.Flags().DurationVar(&lifetime, "lifetime", par.DefaultLifetime, "Request lifetime")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}

func newPARGetCmd() *cobra.Command {
	var consume bool

	cmd := &cobra.Command{
		Use:   "get REQUEST_URI",
		Short: "Print the parameters of a pushed authorization request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference, err := par.ParseRequestURI(args[0])
			if err != nil {
				return err
			}

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				svc, err := rt.parService()
				if err != nil {
					return err
				}
				get := svc.Get
				if consume {
					get = svc.Consume
				}
				req, err := get(ctx, reference)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "expires_at: %s\n", req.ExpiresAtUTC.Format(time.RFC3339))
				fmt.Fprintln(cmd.OutOrStdout(), req.Parameters.Encode())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&consume, "consume", false, "Remove the request after reading it")
	return cmd
}
