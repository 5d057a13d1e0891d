// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/concierge/internal/testutil"
	"github.com/olegiv/concierge/internal/vip"
)

// sessionsSchema is the table sqlite3store expects.
const sessionsSchema = `
CREATE TABLE sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX sessions_expiry_idx ON sessions(expiry);`

func sessionsDB(t *testing.T) *sql.DB {
	return testutil.MemoryDB(t, sessionsSchema)
}

func TestNew_CookieByMode(t *testing.T) {
	dev := New(sessionsDB(t), true)
	assert.False(t, dev.Cookie.Secure)
	assert.NotEqual(t, "__Host-session", dev.Cookie.Name)

	prod := New(sessionsDB(t), false)
	assert.True(t, prod.Cookie.Secure)
	assert.Equal(t, "__Host-session", prod.Cookie.Name)
	assert.Equal(t, "/", prod.Cookie.Path)
}

func TestNew_SessionSettings(t *testing.T) {
	sm := New(sessionsDB(t), true)
	assert.Equal(t, 24*time.Hour, sm.Lifetime)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sm.Cookie.SameSite)
	assert.NotNil(t, sm.Store)
}

// carryCookies copies the cookies set on rec into a new request.
func carryCookies(rec *httptest.ResponseRecorder, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestManager_LoginThenRead(t *testing.T) {
	m := NewManager(New(sessionsDB(t), true))
	member := vip.Session{UserID: 7, Email: "guest@example.com", Role: vip.RoleVIP, Name: "Guest"}

	rec := httptest.NewRecorder()
	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, m.VIP(r.Context()), "anonymous before login")
		require.NoError(t, m.Login(r.Context(), member))
		m.SetFlash(r.Context(), "Welcome", "success")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/vip/login", nil))
	require.NotEmpty(t, rec.Result().Cookies(), "session cookie after login")

	var got *vip.Session
	var flash, kind string
	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = m.VIP(r.Context())
		flash, kind = m.PopFlash(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), carryCookies(rec, http.MethodGet, "/vip"))

	require.NotNil(t, got)
	assert.Equal(t, member, *got)
	assert.Equal(t, "Welcome", flash)
	assert.Equal(t, "success", kind)
}

func TestManager_PopFlashDefaultType(t *testing.T) {
	m := NewManager(New(sessionsDB(t), true))
	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		msg, kind := m.PopFlash(r.Context())
		assert.Empty(t, msg)
		assert.Equal(t, "info", kind)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestManager_Logout(t *testing.T) {
	m := NewManager(New(sessionsDB(t), true))

	rec := httptest.NewRecorder()
	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Login(r.Context(), vip.Session{UserID: 3, Role: vip.RoleAdmin}))
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/vip/login", nil))

	out := httptest.NewRecorder()
	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotNil(t, m.VIP(r.Context()))
		require.NoError(t, m.Logout(r.Context()))
	})).ServeHTTP(out, carryCookies(rec, http.MethodPost, "/vip/logout"))

	m.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, m.VIP(r.Context()), "session destroyed")
	})).ServeHTTP(httptest.NewRecorder(), carryCookies(rec, http.MethodGet, "/vip"))
}
