// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/store"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and prune the audit log",
	}
	cmd.AddCommand(newAuditPurgeCmd(a), newAuditSummaryCmd(a))
	return cmd
}

func newAuditPurgeCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit events older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			n, err := audit.Purge(cmd.Context(), store.New(db), days, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purged %d events older than %d days\n", n, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "retention window in days")
	return cmd
}

func newAuditSummaryCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count audit events per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			since := time.Now().UTC().AddDate(0, 0, -days)
			s, err := audit.Summarize(cmd.Context(), store.New(db), since)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%d events since %s\n", s.Total, s.Since.Format(time.DateOnly))
			for typ, n := range s.ByType {
				_, _ = fmt.Fprintf(out, "  %-20s %d\n", typ, n)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "window in days")
	return cmd
}
