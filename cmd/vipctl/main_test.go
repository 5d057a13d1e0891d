// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes vipctl against dbPath and returns its combined output.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd(cliConfig{DBPath: dbPath, LogLevel: "error"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := execute(root, a)
	return out.String(), err
}

func TestUsersLifecycle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "concierge.db")

	out, err := run(t, dbPath, "users", "create",
		"--email", "Owner@Example.com", "--password", "long-enough-pw", "--name", "Owner", "--role", "admin")
	require.NoError(t, err, out)
	assert.Contains(t, out, "created owner@example.com")

	out, err = run(t, dbPath, "users", "create",
		"--email", "guest@example.com", "--password", "long-enough-pw", "--name", "Guest")
	require.NoError(t, err, out)
	assert.Contains(t, out, "role vip")

	out, err = run(t, dbPath, "users", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "owner@example.com")
	assert.Contains(t, out, "guest@example.com")
	assert.Equal(t, 3, strings.Count(out, "\n"), "header plus two rows")

	out, err = run(t, dbPath, "users", "set-role", "guest@example.com", "admin")
	require.NoError(t, err, out)
	assert.Contains(t, out, "guest@example.com is now admin")

	out, err = run(t, dbPath, "users", "reset-password", "guest@example.com", "--password", "another-long-pw")
	require.NoError(t, err, out)
	assert.Contains(t, out, "password updated")

	out, err = run(t, dbPath, "users", "delete", "guest@example.com")
	require.NoError(t, err, out)
	assert.Contains(t, out, "deleted guest@example.com")
}

func TestUsersErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "concierge.db")

	_, err := run(t, dbPath, "users", "create", "--email", "short@example.com", "--password", "short", "--name", "Short")
	assert.Error(t, err)

	_, err = run(t, dbPath, "users", "create", "--email", "nobody@example.com", "--name", "Nobody")
	assert.Error(t, err, "password flag is required")

	out, err := run(t, dbPath, "users", "create", "--email", "anon@example.com", "--password", "long-enough-pw")
	require.Error(t, err, "name flag is required")
	assert.Contains(t, out, `required flag(s) "name" not set`)

	_, err = run(t, dbPath, "users", "delete", "missing@example.com")
	assert.Error(t, err)

	_, err = run(t, dbPath, "users", "create", "--email", "solo@example.com", "--password", "long-enough-pw", "--name", "Solo", "--role", "admin")
	require.NoError(t, err)
	_, err = run(t, dbPath, "users", "set-role", "solo@example.com", "vip")
	assert.Error(t, err, "last admin cannot be demoted")
	_, err = run(t, dbPath, "users", "set-role", "solo@example.com", "captain")
	assert.Error(t, err)
}

func TestAuditCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "concierge.db")

	out, err := run(t, dbPath, "audit", "purge", "--days", "30")
	require.NoError(t, err, out)
	assert.Contains(t, out, "purged 0 events older than 30 days")

	_, err = run(t, dbPath, "audit", "purge", "--days", "0")
	assert.Error(t, err)

	out, err = run(t, dbPath, "audit", "summary")
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 events since")
}

func TestFailedCommandClosesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "concierge.db")

	root, a := newRootCmd(cliConfig{DBPath: dbPath, LogLevel: "error"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"users", "delete", "missing@example.com"})

	require.Error(t, execute(root, a))
	assert.Nil(t, a.db, "database should be closed after a failing command")
}
