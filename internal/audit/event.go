// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package audit records analytics and audit events keyed by an anonymous
// audit session, batching writes to the database and optionally forwarding
// them to the remote backend.
package audit

import (
	"context"
	"time"
)

// Event types recorded by the server.
const (
	TypePageView         = "page.view"
	TypeVillaView        = "villa.view"
	TypeYachtView        = "yacht.view"
	TypePostView         = "post.view"
	TypeInquirySubmitted = "inquiry.submitted"
	TypeChatMessage      = "chat.message"
	TypeLogin            = "vip.login"
	TypeLoginFailed      = "vip.login_failed"
	TypeLogout           = "vip.logout"
	TypeAccessDenied     = "access.denied"
	TypeUserCreated      = "user.created"
	TypeUserUpdated      = "user.updated"
	TypeUserDeleted      = "user.deleted"
	TypeGalleryUpload    = "gallery.upload"
	TypeLogWarning       = "log.warning"
	TypeLogError         = "log.error"
)

// Event types accepted from the browser.
const (
	TypeUIClick       = "ui.click"
	TypeUISearch      = "ui.search"
	TypeUIGalleryOpen = "ui.gallery_open"
	TypeUIChatOpen    = "ui.chat_open"
)

// clientTypes is the whitelist for POST /api/audit/events.
var clientTypes = map[string]bool{
	TypeUIClick:       true,
	TypeUISearch:      true,
	TypeUIGalleryOpen: true,
	TypeUIChatOpen:    true,
}

// IsClientType reports whether browsers may submit events of type t.
func IsClientType(t string) bool {
	return clientTypes[t]
}

// Audit session cookie.
const (
	SessionCookieName = "concierge_sid"
	SessionTTL        = 30 * time.Minute
)

// Event is a single audit or analytics record.
type Event struct {
	ID        int64          `json:"id,omitempty"`
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	UserID    int64          `json:"user_id,omitempty"`
	Path      string         `json:"path,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
	Browser   string         `json:"browser,omitempty"`
	OS        string         `json:"os,omitempty"`
	Device    string         `json:"device,omitempty"`
	Country   string         `json:"country,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type sessionKey struct{}

// WithSessionID stores the audit session id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the audit session id stored in ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
