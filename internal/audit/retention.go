// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/concierge/internal/store"
)

// Purge deletes events older than retentionDays, counted back from now.
func Purge(ctx context.Context, q *store.Queries, retentionDays int, now time.Time) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention must be at least 1 day, got %d", retentionDays)
	}
	cutoff := now.UTC().AddDate(0, 0, -retentionDays)
	n, err := q.DeleteAuditEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging audit events: %w", err)
	}
	return n, nil
}

// Summary is the per-type event count since a point in time.
type Summary struct {
	Since  time.Time        `json:"since"`
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}

// Summarize counts events per type since since.
func Summarize(ctx context.Context, q *store.Queries, since time.Time) (Summary, error) {
	rows, err := q.CountAuditEventsByType(ctx, since)
	if err != nil {
		return Summary{}, fmt.Errorf("counting audit events: %w", err)
	}
	s := Summary{Since: since, ByType: make(map[string]int64, len(rows))}
	for _, r := range rows {
		s.ByType[r.Type] = r.Count
		s.Total += r.Count
	}
	return s, nil
}
