// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"net/http"
	"strings"
)

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.status = http.StatusOK
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

var untrackedPrefixes = []string{
	"/static/",
	"/uploads/",
	"/api/",
	"/admin",
	"/health",
	"/favicon.",
	"/robots.txt",
	"/sitemap",
	"/.well-known/",
}

// ShouldTrack reports whether a request is a candidate page view.
func ShouldTrack(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return false
		}
	}
	return true
}

// TrackPageViews records a page.view event for successful HTML GET responses
// from human visitors. userID resolves the signed-in user, if any.
func TrackPageViews(rec *Recorder, userID func(*http.Request) int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rec == nil || !ShouldTrack(r) {
				next.ServeHTTP(w, r)
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if sw.status != http.StatusOK {
				return
			}
			if ct := sw.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				return
			}

			e := rec.FromRequest(r, TypePageView, userIDOf(userID, r), nil)
			if e.Device == DeviceBot {
				return
			}
			rec.Record(e)
		})
	}
}

func userIDOf(fn func(*http.Request) int64, r *http.Request) int64 {
	if fn == nil {
		return 0
	}
	return fn(r)
}
