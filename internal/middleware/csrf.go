// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"filippo.io/csrf/gorilla"

	"github.com/olegiv/concierge/internal/i18n"
)

// CSRFConfig configures cross-origin protection for form posts. The
// filippo.io/csrf/gorilla implementation decides from Sec-Fetch-Site and
// Origin, so pages carry no hidden token field.
type CSRFConfig struct {
	AuthKey        []byte       // accepted for gorilla/csrf compatibility
	ErrorHandler   http.Handler // nil uses a localized 403
	TrustedOrigins []string     // host[:port], never a full URL
}

// devOrigins are the local addresses trusted in development.
var devOrigins = []string{"localhost:8080", "127.0.0.1:8080"}

// DefaultCSRFConfig trusts only same-origin posts in production and also the
// local dev server addresses in development.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = append([]string(nil), devOrigins...)
	}
	return cfg
}

// CSRF rejects cross-origin state-changing requests.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	onFail := cfg.ErrorHandler
	if onFail == nil {
		onFail = http.HandlerFunc(rejectCrossOrigin)
	}
	opts := []csrf.Option{csrf.ErrorHandler(onFail)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func rejectCrossOrigin(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin post rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"))
	http.Error(w, i18n.T(GetLang(r), "error.csrf"), http.StatusForbidden)
}

// SkipCSRFPrefix exempts requests under any prefix from the CSRF check.
// The JSON API uses bearer tokens. Install it before CSRF.
func SkipCSRFPrefix(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, prefixes) {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
