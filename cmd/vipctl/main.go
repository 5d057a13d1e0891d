// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command vipctl manages the VIP directory and audit log from the shell.
package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/concierge/internal/logging"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/version"
)

// cliConfig is the subset of the server configuration vipctl needs.
type cliConfig struct {
	DBPath   string `env:"CONCIERGE_DB_PATH" envDefault:"./data/concierge.db"`
	LogLevel string `env:"CONCIERGE_LOG_LEVEL" envDefault:"warn"`
}

// app carries state shared by subcommands.
type app struct {
	dbPath string
	logger *slog.Logger
	db     *sql.DB
}

func main() {
	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "parsing config: %v\n", err)
		os.Exit(1)
	}

	if err := execute(newRootCmd(cfg)); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and closes the database whether or not
// the command succeeded.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing database: %w", cerr)
	}
	return err
}

func newRootCmd(cfg cliConfig) (*cobra.Command, *app) {
	a := &app{dbPath: cfg.DBPath, logger: logging.NewTextLogger(cfg.LogLevel)}

	root := &cobra.Command{
		Use:           "vipctl",
		Short:         "Manage the concierge VIP directory and audit log",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.DBPath, "SQLite database path (env CONCIERGE_DB_PATH)")

	root.AddCommand(newUsersCmd(a), newAuditCmd(a))
	return root, a
}

// open returns the migrated database, opening it on first use.
func (a *app) open() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := store.NewDB(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
