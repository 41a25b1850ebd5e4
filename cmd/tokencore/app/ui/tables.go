// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ui renders command output tables.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/stacklok/tokencore/pkg/keys"
	"github.com/stacklok/tokencore/pkg/storage"
)

const timeLayout = time.RFC3339

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader(headers),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
	)
	return table
}

// RenderKeyTable renders signing keys, oldest first, with their state.
func RenderKeyTable(w io.Writer, statuses []keys.KeyStatus) error {
	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, "No signing keys found.")
		return err
	}

	table := newTable(w, []string{"Key ID", "Algorithm", "Created", "State", "X.509"})
	for _, s := range statuses {
		x509 := "no"
		if s.Key.IsX509Certificate() {
			x509 = "yes"
		}
		if err := table.Append([]string{
			s.Key.ID,
			s.Key.Algorithm,
			s.Key.Created.UTC().Format(timeLayout),
			s.State.String(),
			x509,
		}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// RenderGrantTable renders persisted grants. Data is never shown.
func RenderGrantTable(w io.Writer, grants []*storage.PersistedGrant) error {
	if len(grants) == 0 {
		_, err := fmt.Fprintln(w, "No grants found.")
		return err
	}

	table := newTable(w, []string{"Type", "Client", "Session", "Created", "Expires", "Description"})
	for _, g := range grants {
		expires := "never"
		if g.Expiration != nil {
			expires = g.Expiration.UTC().Format(timeLayout)
		}
		if err := table.Append([]string{
			g.Type,
			g.ClientID,
			g.SessionID,
			g.CreationTime.UTC().Format(timeLayout),
			expires,
			g.Description,
		}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
