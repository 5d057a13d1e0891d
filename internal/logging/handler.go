// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the audit event store.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/olegiv/concierge/internal/store"
)

// Audit event types written for log records.
const (
	EventTypeWarning = "log.warning"
	EventTypeError   = "log.error"
)

// Categories inferred from log messages.
const (
	CategoryAuth    = "auth"
	CategoryVIP     = "vip"
	CategoryInquiry = "inquiry"
	CategoryChat    = "chat"
	CategoryCatalog = "catalog"
	CategoryCache   = "cache"
	CategorySystem  = "system"
)

// AuditHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the audit_events table.
type AuditHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewAuditHandler wraps inner and mirrors WARN and above into the audit store.
func NewAuditHandler(inner slog.Handler, db *sql.DB) *AuditHandler {
	return NewAuditHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewAuditHandlerWithLevel is NewAuditHandler with a custom minimum level.
func NewAuditHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *AuditHandler {
	return &AuditHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// ParseLevel maps a config string to a slog.Level. Unknown values yield INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewTextLogger builds the stdout text logger used before the database is open.
func NewTextLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Enabled implements slog.Handler.
func (h *AuditHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *AuditHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeAuditEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *AuditHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &AuditHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *AuditHandler) WithGroup(name string) slog.Handler {
	return &AuditHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// writeAuditEvent uses a background context so the event survives a
// cancelled request.
func (h *AuditHandler) writeAuditEvent(r slog.Record) {
	eventType := EventTypeWarning
	if r.Level >= slog.LevelError {
		eventType = EventTypeError
	}

	_ = h.queries.InsertAuditEvent(context.Background(), store.InsertAuditEventParams{
		Type:      eventType,
		SessionID: h.stringAttr(r, "session_id"),
		Path:      h.stringAttr(r, "path"),
		Metadata:  h.metadata(r),
		CreatedAt: r.Time.UTC(),
	})
}

func (h *AuditHandler) stringAttr(r slog.Record, key string) string {
	var val string
	for _, a := range h.attrs {
		if a.Key == key {
			val = a.Value.String()
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val = a.Value.String()
			return false
		}
		return true
	})
	return val
}

// Category returns the explicit "category" attribute of r, or one inferred
// from the message.
func (h *AuditHandler) Category(r slog.Record) string {
	if c := h.stringAttr(r, "category"); c != "" {
		return c
	}
	return InferCategory(r.Message)
}

// InferCategory guesses a category from keywords in a log message.
func InferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "login") || strings.Contains(msg, "logout") ||
		strings.Contains(msg, "auth") || strings.Contains(msg, "token") || strings.Contains(msg, "csrf"):
		return CategoryAuth
	case strings.Contains(msg, "vip") || strings.Contains(msg, "user"):
		return CategoryVIP
	case strings.Contains(msg, "inquiry") || strings.Contains(msg, "relay") || strings.Contains(msg, "captcha"):
		return CategoryInquiry
	case strings.Contains(msg, "chat") || strings.Contains(msg, "gemini") || strings.Contains(msg, "openai"):
		return CategoryChat
	case strings.Contains(msg, "villa") || strings.Contains(msg, "yacht") ||
		strings.Contains(msg, "catalog") || strings.Contains(msg, "backend"):
		return CategoryCatalog
	case strings.Contains(msg, "cache") || strings.Contains(msg, "redis"):
		return CategoryCache
	default:
		return CategorySystem
	}
}

// metadata collects the message, category and attributes into a JSON object.
func (h *AuditHandler) metadata(r slog.Record) string {
	m := map[string]any{
		"message":  r.Message,
		"level":    r.Level.String(),
		"category": h.Category(r),
	}
	add := func(a slog.Attr) {
		if a.Key == "category" || a.Key == "" {
			return
		}
		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindInt64:
			m[a.Key] = v.Int64()
		case slog.KindBool:
			m[a.Key] = v.Bool()
		case slog.KindFloat64:
			m[a.Key] = v.Float64()
		default:
			m[a.Key] = v.String()
		}
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})

	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}
