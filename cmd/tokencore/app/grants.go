// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/tokencore/cmd/tokencore/app/ui"
	"github.com/stacklok/tokencore/pkg/logger"
)

func newGrantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grants",
		Short: "List and revoke persisted grants",
	}
	cmd.AddCommand(newGrantsListCmd())
	cmd.AddCommand(newGrantsRevokeCmd())
	return cmd
}

func newGrantsListCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the unexpired grants of a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				svc, err := rt.grantService()
				if err != nil {
					return err
				}
				gs, err := svc.GetAllGrants(ctx, subject)
				if err != nil {
					return err
				}
				return ui.RenderGrantTable(cmd.OutOrStdout(), gs)
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject whose grants are listed")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newGrantsRevokeCmd() *cobra.Command {
	var subject, clientID, sessionID string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the grants of a subject",
		Long: `Revoke every grant of a subject, optionally only those issued to one client
or within one session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				svc, err := rt.grantService()
				if err != nil {
					return err
				}
				if err := svc.RemoveAllGrants(ctx, subject, clientID, sessionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked grants of %s\n", subject)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject whose grants are revoked")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Only revoke grants issued to this client")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Only revoke grants of this session")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired grants and device codes",
	}
	cmd.AddCommand(newCleanupRunCmd())
	return cmd
}

func newCleanupRunCmd() *cobra.Command {
	var (
		watch       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run token cleanup",
		Long: `Remove expired grants and device codes once. With --watch cleanup repeats at
the configured interval until interrupted. --metrics-addr serves the
Prometheus scrape endpoint while watching and needs
telemetry.prometheus_enabled in the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				cleanup, err := rt.cleanup()
				if err != nil {
					return err
				}

				if !watch {
					result, err := cleanup.RunOnce(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d grants and %d device codes\n",
						result.GrantsRemoved, result.DeviceCodesRemoved)
					return nil
				}

				if !rt.cfg.CleanupEnabled() {
					logger.Warnf("Cleanup is disabled in the configuration, running anyway because --watch was given")
				}
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				if metricsAddr != "" {
					shutdown, err := serveMetrics(metricsAddr, rt.telemetry.PrometheusHandler())
					if err != nil {
						return err
					}
					defer shutdown()
				}
				if err := cleanup.Start(ctx); err != nil {
					return err
				}
				<-ctx.Done()
				cleanup.Stop()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running at the configured interval")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve /metrics on while watching")
	return cmd
}

// serveMetrics exposes handler at /metrics on addr in the background.
func serveMetrics(addr string, handler http.Handler) (func(), error) {
	if handler == nil {
		return nil, errors.New("--metrics-addr requires telemetry.prometheus_enabled")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server failed: %v", err)
		}
	}()
	logger.Infof("Serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warnf("Failed to stop metrics server: %v", err)
		}
	}, nil
}
