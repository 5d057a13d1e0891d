// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/store"
)

// Default schedules.
const (
	AuditRetentionSchedule = "15 3 * * *"
	CacheWarmupSchedule    = "*/15 * * * *"
	GeoIPReloadSchedule    = "30 4 * * *"
)

// Job names.
const (
	JobAuditRetention = "audit-retention"
	JobCacheWarmup    = "catalog-warmup"
	JobGeoIPReload    = "geoip-reload"
)

// Warmer refills a cache. *catalog.CachedSource implements it.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Reloader reopens a data file. *geoip.Lookup implements it.
type Reloader interface {
	Reload() error
}

// Deps are the components the standard jobs operate on. Nil fields skip
// the corresponding job.
type Deps struct {
	Queries       *store.Queries
	RetentionDays int
	Catalog       Warmer
	GeoIP         Reloader
}

// RegisterDefaults adds the audit retention, catalog warmup and GeoIP
// reload jobs.
func (s *Scheduler) RegisterDefaults(d Deps) error {
	if d.Queries != nil {
		err := s.Add(JobAuditRetention, "Delete audit events past the retention window", AuditRetentionSchedule,
			AuditRetentionJob(d.Queries, d.RetentionDays, s.logger))
		if err != nil {
			return err
		}
	}
	if d.Catalog != nil {
		err := s.Add(JobCacheWarmup, "Refresh the catalog cache from the backend", CacheWarmupSchedule,
			func(ctx context.Context) error { return d.Catalog.Warm(ctx) })
		if err != nil {
			return err
		}
	}
	if d.GeoIP != nil {
		err := s.Add(JobGeoIPReload, "Reopen the GeoIP database", GeoIPReloadSchedule,
			func(context.Context) error { return d.GeoIP.Reload() })
		if err != nil {
			return err
		}
	}
	return nil
}

// AuditRetentionJob deletes audit events older than retentionDays.
func AuditRetentionJob(q *store.Queries, retentionDays int, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := audit.Purge(ctx, q, retentionDays, time.Now().UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("purged audit events", "deleted", n, "retention_days", retentionDays)
		}
		return nil
	}
}
