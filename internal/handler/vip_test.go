// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/concierge/internal/auth"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/testutil"
	"github.com/olegiv/concierge/internal/vip"
)

var testTokenSecret = []byte("test-secret-that-is-at-least-32-bytes!")

func newTestVIPHandler(t *testing.T) (*VIPHandler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	t.Cleanup(lp.Stop)

	h := NewVIPHandler(VIPConfig{
		Renderer:        env.renderer,
		Sessions:        env.sessions,
		Users:           env.users,
		Catalog:         env.catalog,
		LoginProtection: lp,
		TokenSecret:     testTokenSecret,
		TokenTTL:        time.Hour,
		Logger:          testutil.TestLoggerSilent(),
	})
	return h, env
}

func loginForm(email, password, next string) *http.Request {
	return postForm("/vip/login", url.Values{
		"email":    {email},
		"password": {password},
		"next":     {next},
	})
}

func TestVIPHandler_LoginForm(t *testing.T) {
	h, env := newTestVIPHandler(t)

	w := env.serve(h.LoginForm, httptest.NewRequest(http.MethodGet, "/vip/login?next=/villas", nil))
	assertStatus(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Body.String(), `name="next" value="/villas"`)

	member := env.createUser(t, "member@example.com", vip.RoleVIP)
	req := requestAs(httptest.NewRequest(http.MethodGet, "/vip/login?next=/villas", nil), member)
	w = env.serve(h.LoginForm, req)
	assertStatus(t, w.Code, http.StatusSeeOther)
	assert.Equal(t, "/villas", w.Header().Get("Location"))
}

func TestVIPHandler_Login_Success(t *testing.T) {
	h, env := newTestVIPHandler(t)
	member := env.createUser(t, "member@example.com", vip.RoleVIP)

	var stored *vip.Session
	w := env.serve(func(w http.ResponseWriter, r *http.Request) {
		h.Login(w, r)
		stored = env.sessions.VIP(r.Context())
	}, loginForm("Member@Example.com", testPassword, "/villas/villa-serenissima"))

	assertStatus(t, w.Code, http.StatusSeeOther)
	assert.Equal(t, "/villas/villa-serenissima", w.Header().Get("Location"))
	require.NotNil(t, stored, "session should hold the VIP record")
	assert.Equal(t, member.ID, stored.UserID)
	assert.Equal(t, vip.RoleVIP, stored.Role)
}

func TestVIPHandler_Login_RejectsOffsiteNext(t *testing.T) {
	h, env := newTestVIPHandler(t)
	env.createUser(t, "member@example.com", vip.RoleVIP)

	w := env.serve(h.Login, loginForm("member@example.com", testPassword, "//evil.example"))

	assertStatus(t, w.Code, http.StatusSeeOther)
	assert.Equal(t, "/vip", w.Header().Get("Location"))
}

func TestVIPHandler_Login_Failures(t *testing.T) {
	h, env := newTestVIPHandler(t)
	env.createUser(t, "member@example.com", vip.RoleVIP)

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"missing password", "member@example.com", "", http.StatusUnprocessableEntity},
		{"wrong password", "member@example.com", "wrong-password", http.StatusUnauthorized},
		{"unknown user", "ghost@example.com", testPassword, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored *vip.Session
			w := env.serve(func(w http.ResponseWriter, r *http.Request) {
				h.Login(w, r)
				stored = env.sessions.VIP(r.Context())
			}, loginForm(tt.email, tt.password, ""))

			assertStatus(t, w.Code, tt.want)
			assert.Nil(t, stored)
			assert.Contains(t, w.Body.String(), `class="flash flash-error"`)
		})
	}
}

func TestVIPHandler_Login_LocksAccount(t *testing.T) {
	h, env := newTestVIPHandler(t)
	env.createUser(t, "member@example.com", vip.RoleVIP)

	var last int
	for range middleware.DefaultLoginProtectionConfig().MaxFailedAttempts {
		w := env.serve(h.Login, loginForm("member@example.com", "wrong-password", ""))
		last = w.Code
	}
	assertStatus(t, last, http.StatusTooManyRequests)

	// The right password is refused while the lock lasts.
	w := env.serve(h.Login, loginForm("member@example.com", testPassword, ""))
	assertStatus(t, w.Code, http.StatusTooManyRequests)
}

func TestVIPHandler_Logout(t *testing.T) {
	h, env := newTestVIPHandler(t)
	member := env.createUser(t, "member@example.com", vip.RoleVIP)

	req := requestAs(httptest.NewRequest(http.MethodPost, "/vip/logout", nil), member)
	w := env.serve(h.Logout, req)

	assertStatus(t, w.Code, http.StatusSeeOther)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestVIPHandler_Lounge(t *testing.T) {
	h, env := newTestVIPHandler(t)
	member := env.createUser(t, "member@example.com", vip.RoleVIP)

	req := requestAs(httptest.NewRequest(http.MethodGet, "/vip", nil), member)
	w := env.serve(h.Lounge, req)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Contains(t, body, "Villa Serenissima")
	assert.NotContains(t, body, "Chalet Blanc", "the lounge lists only private villas")
}

func TestVIPHandler_ChangePassword(t *testing.T) {
	h, env := newTestVIPHandler(t)
	member := env.createUser(t, "member@example.com", vip.RoleVIP)

	tests := []struct {
		name      string
		current   string
		next      string
		confirm   string
		want      int
		wantField string
	}{
		{"mismatch", testPassword, "new-password-1", "new-password-2", http.StatusUnprocessableEntity, "confirm_password"},
		{"wrong current", "nope-nope-nope", "new-password-1", "new-password-1", http.StatusUnprocessableEntity, "current_password"},
		{"too short", testPassword, "short", "short", http.StatusUnprocessableEntity, "new_password"},
		{"success", testPassword, "new-password-1", "new-password-1", http.StatusSeeOther, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postForm("/vip/account", url.Values{
				"current_password": {tt.current},
				"new_password":     {tt.next},
				"confirm_password": {tt.confirm},
			})
			w := env.serve(h.ChangePassword, requestAs(req, member))

			assertStatus(t, w.Code, tt.want)
			if tt.wantField != "" {
				body := w.Body.String()
				idx := strings.Index(body, `name="`+tt.wantField+`"`)
				require.GreaterOrEqual(t, idx, 0)
				assert.Contains(t, body[idx:], `class="error"`)
			}
		})
	}

	_, err := env.users.Authenticate(t.Context(), "member@example.com", "new-password-1")
	assert.NoError(t, err, "new password should work after the change")
}

func TestVIPHandler_APILogin(t *testing.T) {
	h, env := newTestVIPHandler(t)
	admin := env.createUser(t, "admin@example.com", vip.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/vip/login",
		strings.NewReader(`{"email":"admin@example.com","password":"`+testPassword+`"}`))
	w := env.serve(h.APILogin, req)

	assertStatus(t, w.Code, http.StatusOK)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Bearer", resp["token_type"])

	token, _ := resp["token"].(string)
	claims, err := auth.ParseToken(token, testTokenSecret)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID())
	assert.Equal(t, string(vip.RoleAdmin), claims.Role)
}

func TestVIPHandler_APILogin_Errors(t *testing.T) {
	h, env := newTestVIPHandler(t)
	env.createUser(t, "member@example.com", vip.RoleVIP)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", ``, http.StatusBadRequest},
		{"missing password", `{"email":"member@example.com"}`, http.StatusBadRequest},
		{"bad credentials", `{"email":"member@example.com","password":"nope-nope"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/vip/login", strings.NewReader(tt.body))
			w := env.serve(h.APILogin, req)

			assertStatus(t, w.Code, tt.want)
			assert.Equal(t, false, decodeResponse(t, w)["success"])
		})
	}
}

func TestVIPHandler_APIMe(t *testing.T) {
	h, env := newTestVIPHandler(t)
	member := env.createUser(t, "member@example.com", vip.RoleVIP)

	req := requestAs(httptest.NewRequest(http.MethodGet, "/api/vip/me", nil), member)
	w := env.serve(h.APIMe, req)

	assertStatus(t, w.Code, http.StatusOK)
	resp := decodeResponse(t, w)
	assert.Equal(t, true, resp["can_view_private"])
	assert.Equal(t, false, resp["is_admin"])
	assert.Equal(t, "session", resp["authenticated_via"])
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{time.Minute, "1 minute"},
		{15 * time.Minute, "15 minutes"},
		{time.Hour, "1 hour"},
		{3 * time.Hour, "3 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
