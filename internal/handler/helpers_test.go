// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
	"github.com/olegiv/concierge/internal/session"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/testutil"
	"github.com/olegiv/concierge/internal/vip"
	"github.com/olegiv/concierge/web"
)

const testPassword = "correct-horse-battery"

// testEnv bundles the dependencies most handlers need, backed by a seeded
// database in the test's temp directory.
type testEnv struct {
	db       *sql.DB
	queries  *store.Queries
	sm       *scs.SessionManager
	sessions *session.Manager
	renderer *render.Renderer
	catalog  *catalog.Catalog
	users    *vip.Service
	recorder *audit.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestSeededDB(t)
	sm := session.New(db, true)
	sessions := session.NewManager(sm)

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:  templates,
		Sessions:     sessions,
		BrandName:    "Riviera Concierge",
		SiteURL:      "https://example.com",
		ContactEmail: "reservations@example.com",
		IsDev:        true,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	logger := testutil.TestLoggerSilent()
	return &testEnv{
		db:       db,
		queries:  store.New(db),
		sm:       sm,
		sessions: sessions,
		renderer: renderer,
		catalog:  catalog.New(catalog.NewLocalSource(db), logger),
		users:    vip.NewService(store.New(db), logger),
		recorder: audit.NewRecorder(db, logger, audit.DefaultConfig()),
	}
}

// createUser adds a directory user with testPassword.
func (e *testEnv) createUser(t *testing.T, email string, role vip.Role) vip.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), nil, vip.CreateUserInput{
		Email:    email,
		Password: testPassword,
		Name:     "Test " + string(role),
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// serve runs h with session data loaded, the way the router does.
func (e *testEnv) serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.sm.LoadAndSave(h).ServeHTTP(w, r)
	return w
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestAs attaches the session of u to the request.
func requestAs(r *http.Request, u vip.User) *http.Request {
	s := vip.NewSession(u)
	return r.WithContext(middleware.WithSession(r.Context(), &s))
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

// decodeResponse unmarshals a JSON response body.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return resp
}
