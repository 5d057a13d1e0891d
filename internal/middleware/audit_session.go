// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/olegiv/concierge/internal/audit"
)

// AuditSession assigns every visitor an anonymous audit session id used to
// correlate analytics events. The cookie expires after audit.SessionTTL of
// inactivity and is refreshed on every request.
func AuditSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(audit.SessionCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil && parsed.Version() == 4 {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     audit.SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(audit.SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(audit.WithSessionID(r.Context(), id)))
		})
	}
}
