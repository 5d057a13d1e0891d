// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the concierge site.
package testutil

import (
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver for MemoryDB

	"github.com/olegiv/concierge/internal/store"
)

// TestLoggerSilent discards all output.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestDB returns a migrated database file under t.TempDir, closed on cleanup.
func TestDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "concierge-test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// TestSeededDB is TestDB with the demo catalog loaded.
func TestSeededDB(t testing.TB) *sql.DB {
	t.Helper()
	db := TestDB(t)
	if err := store.SeedCatalog(t.Context(), db); err != nil {
		t.Fatalf("seeding catalog: %v", err)
	}
	return db
}

// MemoryDB opens a single-connection in-memory database through
// mattn/go-sqlite3 and applies schema. It suits packages that own a table
// outside the store migrations.
func MemoryDB(t testing.TB, schema string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	return db
}
