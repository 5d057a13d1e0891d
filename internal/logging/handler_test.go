// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/concierge/internal/store"
)

// testDB creates a temporary migrated database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "logging.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.AuditEvent {
	t.Helper()
	events, err := store.New(db).ListAuditEvents(context.Background(), store.ListAuditEventsParams{Limit: 50})
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	return events
}

func metadataOf(t *testing.T, e store.AuditEvent) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(e.Metadata), &m); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, e.Metadata)
	}
	return m
}

func TestAuditHandler_Levels(t *testing.T) {
	tests := []struct {
		name     string
		log      func(*slog.Logger)
		wantType string
	}{
		{"error", func(l *slog.Logger) { l.Error("backend request failed", "status", 502) }, EventTypeError},
		{"warn", func(l *slog.Logger) { l.Warn("slow villa query", "duration_ms", 1500) }, EventTypeWarning},
		{"info ignored", func(l *slog.Logger) { l.Info("server started") }, ""},
		{"debug ignored", func(l *slog.Logger) { l.Debug("cache hit") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			logger := slog.New(NewAuditHandler(discardHandler{}, db))
			tt.log(logger)

			events := listEvents(t, db)
			if tt.wantType == "" {
				if len(events) != 0 {
					t.Fatalf("expected no events, got %d", len(events))
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Type != tt.wantType {
				t.Errorf("Type = %q, want %q", events[0].Type, tt.wantType)
			}
		})
	}
}

func TestAuditHandler_CustomLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewAuditHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("server started", "port", 8080)

	if n := len(listEvents(t, db)); n != 1 {
		t.Errorf("expected 1 event with INFO threshold, got %d", n)
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"login attempt blocked", CategoryAuth},
		{"invalid api token", CategoryAuth},
		{"user deleted", CategoryVIP},
		{"inquiry relay failed", CategoryInquiry},
		{"gemini request failed", CategoryChat},
		{"backend unavailable, using local villas", CategoryCatalog},
		{"redis unavailable", CategoryCache},
		{"something odd", CategorySystem},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.msg); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestAuditHandler_Metadata(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewAuditHandler(discardHandler{}, db)).With("component", "relay")

	logger.Error("something happened",
		"category", CategoryInquiry,
		"status_code", 500,
		"path", "/contact",
		"session_id", "sid-1",
	)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Path != "/contact" {
		t.Errorf("Path = %q, want /contact", e.Path)
	}
	if e.SessionID != "sid-1" {
		t.Errorf("SessionID = %q, want sid-1", e.SessionID)
	}

	m := metadataOf(t, e)
	if m["category"] != CategoryInquiry {
		t.Errorf("category = %v, want explicit %q", m["category"], CategoryInquiry)
	}
	if m["component"] != "relay" {
		t.Errorf("component = %v, want relay from WithAttrs", m["component"])
	}
	if m["status_code"] != float64(500) {
		t.Errorf("status_code = %v, want 500", m["status_code"])
	}
	if m["message"] != "something happened" {
		t.Errorf("message = %v", m["message"])
	}
}

func TestAuditHandler_WithGroup(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewAuditHandler(discardHandler{}, db)).WithGroup("http")

	logger.Warn("cache write failed")

	if n := len(listEvents(t, db)); n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
