// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/gallery"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
	"github.com/olegiv/concierge/internal/session"
	"github.com/olegiv/concierge/internal/vip"
)

// Flash message types.
const (
	flashTypeSuccess = "success"
	flashTypeError   = "error"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sessions *session.Manager, url, message, messageType string) {
	if sessions != nil {
		sessions.SetFlash(r.Context(), message, messageType)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, sessions *session.Manager, url, message string) {
	flashAndRedirect(w, r, sessions, url, message, flashTypeError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, sessions *session.Manager, url, message string) {
	flashAndRedirect(w, r, sessions, url, message, flashTypeSuccess)
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// logAndJSONError logs an error and writes a 500 JSON response.
func logAndJSONError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
}

// renderPage renders a page template and falls back to a plain 500 on failure.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "error", err, "template", name)
	}
}

// renderError renders the error page for status.
func renderError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int) {
	lang := middleware.GetLang(r)
	key := "error.server"
	switch status {
	case http.StatusNotFound:
		key = "error.not_found"
	case http.StatusForbidden:
		key = "error.forbidden"
	case http.StatusTooManyRequests:
		key = "error.rate_limited"
	}
	msg := i18n.T(lang, key)

	if renderer == nil || !renderer.Has("error") {
		http.Error(w, msg, status)
		return
	}
	renderPage(w, r, renderer, status, "error", render.TemplateData{
		Title: http.StatusText(status),
		Data: map[string]any{
			"Status":  status,
			"Message": msg,
		},
	})
}

// isNotFound reports whether err means the requested entity does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, catalog.ErrNotFound) ||
		errors.Is(err, vip.ErrNotFound) ||
		errors.Is(err, gallery.ErrNotFound)
}

// requireEntity fetches an entity and renders the error page on failure.
// Returns the entity and true if successful, or zero value and false if an
// error response was already written.
func requireEntity[T any](
	w http.ResponseWriter,
	r *http.Request,
	renderer *render.Renderer,
	entityName string,
	key any,
	queryFn func() (T, error),
) (T, bool) {
	var zero T
	entity, err := queryFn()
	if err != nil {
		if isNotFound(err) {
			renderError(w, r, renderer, http.StatusNotFound)
		} else {
			slog.Error("failed to get "+entityName, "error", err, entityName, key)
			renderError(w, r, renderer, http.StatusInternalServerError)
		}
		return zero, false
	}
	return entity, true
}

// requireEntityWithJSONError fetches an entity and writes a JSON error on failure.
func requireEntityWithJSONError[T any](
	w http.ResponseWriter,
	entityName string,
	key any,
	queryFn func() (T, error),
) (T, bool) {
	var zero T
	entity, err := queryFn()
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, http.StatusNotFound, entityName+" not found")
		} else {
			logAndJSONError(w, "failed to get "+entityName, "error", err, entityName, key)
		}
		return zero, false
	}
	return entity, true
}

// idParam parses a positive int64 route parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
