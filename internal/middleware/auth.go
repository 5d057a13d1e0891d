// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for VIP sessions,
// authorization, request protection and request context handling.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/auth"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/session"
	"github.com/olegiv/concierge/internal/util"
	"github.com/olegiv/concierge/internal/vip"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys.
const (
	ContextKeySession   ContextKey = "vip_session"
	ContextKeyViaBearer ContextKey = "via_bearer"
)

// LoginPath is where anonymous visitors are sent for protected pages.
const LoginPath = "/vip/login"

// UserLookup resolves the current state of an account. *vip.Service implements it.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (vip.User, error)
}

// LoadSession puts the visitor's VIP session into the request context.
// Browser sessions come from scs; API clients may instead send
// "Authorization: Bearer <token>". Role and name are refreshed from the
// directory on every request, and sessions of deleted users are dropped.
func LoadSession(sm *session.Manager, users UserLookup, tokenSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var (
				s         *vip.Session
				viaBearer bool
			)
			if raw := bearerToken(r); raw != "" {
				claims, err := auth.ParseToken(raw, tokenSecret)
				if err != nil {
					msg := "Invalid API token"
					if errors.Is(err, auth.ErrTokenExpired) {
						msg = "API token has expired"
					}
					writeJSONError(w, http.StatusUnauthorized, msg)
					return
				}
				s = &vip.Session{
					UserID: claims.UserID(),
					Email:  claims.Email,
					Role:   vip.Role(claims.Role),
					Name:   claims.Name,
				}
				viaBearer = true
			} else if sm != nil {
				s = sm.VIP(ctx)
			}

			if s != nil && users != nil {
				u, err := users.GetUser(ctx, s.UserID)
				switch {
				case errors.Is(err, vip.ErrNotFound):
					slog.Info("dropping session of deleted user", "user_id", s.UserID)
					if !viaBearer && sm != nil {
						_ = sm.Logout(ctx)
					}
					s = nil
				case err != nil:
					slog.Error("failed to refresh vip session", "error", err, "user_id", s.UserID)
				default:
					fresh := vip.NewSession(u)
					if fresh != *s && !viaBearer && sm != nil {
						sm.Update(ctx, fresh)
					}
					s = &fresh
				}
			}

			if s != nil {
				ctx = WithSession(ctx, s)
				ctx = context.WithValue(ctx, ContextKeyViaBearer, viaBearer)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *vip.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// GetSession returns the visitor's session, or nil for anonymous visitors.
func GetSession(r *http.Request) *vip.Session {
	s, _ := r.Context().Value(ContextKeySession).(*vip.Session)
	return s
}

// GetUserID returns the signed-in user's ID, or 0.
func GetUserID(r *http.Request) int64 {
	if s := GetSession(r); s != nil {
		return s.UserID
	}
	return 0
}

// ViaBearer reports whether the session came from an API token.
func ViaBearer(r *http.Request) bool {
	v, _ := r.Context().Value(ContextKeyViaBearer).(bool)
	return v
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// RequireVIP requires any signed-in member. HTML requests are redirected to
// the login page with a return path; API requests get 401.
func RequireVIP() func(http.Handler) http.Handler {
	return RequireRole(vip.RoleVIP, nil)
}

// RequireAdmin requires the admin role and records denied attempts.
func RequireAdmin(rec *audit.Recorder) func(http.Handler) http.Handler {
	return RequireRole(vip.RoleAdmin, rec)
}

// RequireRole requires a session whose role is at least minRole.
func RequireRole(minRole vip.Role, rec *audit.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSession(r)
			if s == nil {
				if isAPIRequest(r) {
					writeJSONError(w, http.StatusUnauthorized, "Authentication required")
					return
				}
				http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}

			if !s.HasRole(minRole) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", s.UserID,
					"user_role", s.Role,
					"required_role", minRole,
					"remote_addr", util.ClientIP(r),
				)
				rec.RecordRequest(r, audit.TypeAccessDenied, s.UserID, map[string]any{
					"method":        r.Method,
					"user_role":     string(s.Role),
					"required_role": string(minRole),
				})

				if isAPIRequest(r) {
					writeJSONError(w, http.StatusForbidden, "Insufficient permissions")
					return
				}
				http.Error(w, i18n.T(GetLang(r), "error.forbidden"), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
