// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/olegiv/concierge/internal/cache"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

const (
	backendPingTimeout = 3 * time.Second
	minFreeDisk        = 100 << 20
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves /health, /health/live and /health/ready.
type HealthHandler struct {
	db         *sql.DB
	uploadsDir string
	backend    Pinger // nil without a remote catalog
	cache      cache.Cacher
	started    time.Time
}

func NewHealthHandler(db *sql.DB, uploadsDir string, backend Pinger, c cache.Cacher) *HealthHandler {
	return &HealthHandler{db: db, uploadsDir: uploadsDir, backend: backend, cache: c, started: time.Now()}
}

// HealthStatusPublic is all anonymous callers see.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the admin view.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// timed runs ping and reports it as a Check.
func timed(ping func() error, ok, failPrefix string) Check {
	start := time.Now()
	err := ping()
	c := Check{Status: statusHealthy, Message: ok, Latency: time.Since(start).String()}
	if err != nil {
		c.Status, c.Message = statusUnhealthy, failPrefix+err.Error()
	}
	return c
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	return timed(func() error { return h.db.PingContext(ctx) }, "Connected", "")
}

// checkBackend never fails the site: the local catalog serves while the
// backend is away.
func (h *HealthHandler) checkBackend(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, backendPingTimeout)
	defer cancel()
	return timed(func() error { return h.backend.Ping(ctx) }, "Reachable", "Serving local catalog: ")
}

func (h *HealthHandler) checkDisk() Check {
	var st syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &st); err != nil {
		if _, serr := os.Stat(h.uploadsDir); errors.Is(serr, fs.ErrNotExist) {
			return Check{Status: statusHealthy, Message: "Uploads directory does not exist yet"}
		}
		return Check{Status: statusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < minFreeDisk {
		return Check{Status: statusDegraded, Message: "Low disk space: " + formatBytes(free) + " available"}
	}
	return Check{Status: statusHealthy, Message: formatBytes(free) + " available"}
}

// Health handles GET /health. Only a failing database or disk makes the
// site unhealthy; anything else short of healthy degrades it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]Check{
		"database": h.checkDatabase(ctx),
		"disk":     h.checkDisk(),
	}
	if h.backend != nil {
		checks["backend"] = h.checkBackend(ctx)
	}

	overall, code := statusHealthy, http.StatusOK
	for name, c := range checks {
		if c.Status == statusHealthy {
			continue
		}
		if c.Status == statusUnhealthy && name != "backend" {
			overall, code = statusUnhealthy, http.StatusServiceUnavailable
		} else if overall == statusHealthy {
			overall = statusDegraded
		}
	}

	if !middleware.GetSession(r).IsAdmin() {
		writeJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	resp := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   version.Get(),
		Checks:    checks,
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		s := sp.Stats()
		resp.Cache = &s
	}
	if r.URL.Query().Get("verbose") == "true" {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		resp.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     formatBytes(m.Alloc),
			MemSys:       formatBytes(m.Sys),
		}
	}
	writeJSON(w, code, resp)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The database error is shown to
// admins only.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	c := h.checkDatabase(r.Context())
	if c.Status == statusHealthy {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	resp := map[string]string{"status": "not_ready"}
	if middleware.GetSession(r).IsAdmin() {
		resp["message"] = c.Message
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

func formatBytes(n uint64) string {
	return humanize.IBytes(n)
}
