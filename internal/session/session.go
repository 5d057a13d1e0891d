// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the scs session manager and stores the VIP
// session record in it.
package session

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/concierge/internal/vip"
)

// Session keys.
const (
	KeyVIP       = "vip_session"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
	KeyLanguage  = "lang"
)

func init() {
	gob.Register(vip.Session{})
}

// New creates a new session manager configured with the SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 4 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// Manager wraps an scs.SessionManager with typed accessors for the VIP session.
type Manager struct {
	*scs.SessionManager
}

// NewManager wraps sm.
func NewManager(sm *scs.SessionManager) *Manager {
	return &Manager{SessionManager: sm}
}

// Login renews the session token and stores s. The renewal prevents session fixation.
func (m *Manager) Login(ctx context.Context, s vip.Session) error {
	if err := m.RenewToken(ctx); err != nil {
		return err
	}
	m.Put(ctx, KeyVIP, s)
	return nil
}

// VIP returns the stored session record, or nil for anonymous visitors.
func (m *Manager) VIP(ctx context.Context) *vip.Session {
	s, ok := m.Get(ctx, KeyVIP).(vip.Session)
	if !ok || s.UserID == 0 {
		return nil
	}
	return &s
}

// Update replaces the stored session record without renewing the token.
func (m *Manager) Update(ctx context.Context, s vip.Session) {
	m.Put(ctx, KeyVIP, s)
}

// Logout destroys the session.
func (m *Manager) Logout(ctx context.Context) error {
	return m.Destroy(ctx)
}

// SetFlash stores a one-shot message shown on the next page render.
func (m *Manager) SetFlash(ctx context.Context, message, flashType string) {
	m.Put(ctx, KeyFlash, message)
	m.Put(ctx, KeyFlashType, flashType)
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(ctx context.Context) (message, flashType string) {
	message = m.PopString(ctx, KeyFlash)
	flashType = m.PopString(ctx, KeyFlashType)
	if flashType == "" {
		flashType = "info"
	}
	return message, flashType
}
