// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/store"
)

// Audit listing limits.
const (
	auditDefaultLimit = 50
	auditMaxLimit     = 500
	// auditSummaryDays is the default window of the summary endpoint.
	auditSummaryDays = 7
)

// AuditHandler accepts browser events and serves the audit log to admins.
type AuditHandler struct {
	recorder *audit.Recorder
	queries  *store.Queries
	now      func() time.Time
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(rec *audit.Recorder, q *store.Queries) *AuditHandler {
	return &AuditHandler{recorder: rec, queries: q, now: time.Now}
}

// ClientEvents handles POST /api/audit/events.
func (h *AuditHandler) ClientEvents(w http.ResponseWriter, r *http.Request) {
	var batch audit.ClientBatch
	if err := decodeJSON(w, r, &batch); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted, err := h.recorder.RecordClientBatch(r, batch, middleware.GetUserID(r))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":  true,
		"accepted": accepted,
	})
}

// List handles GET /api/admin/audit. Filters: type, session, limit, offset.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := limitOffset(r, auditDefaultLimit, auditMaxLimit)

	rows, err := h.queries.ListAuditEvents(r.Context(), store.ListAuditEventsParams{
		Type:      strings.TrimSpace(q.Get("type")),
		SessionID: strings.TrimSpace(q.Get("session")),
		Limit:     int64(limit),
		Offset:    int64(offset),
	})
	if err != nil {
		logAndJSONError(w, "failed to list audit events", "error", err)
		return
	}

	events := make([]audit.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, audit.FromStore(row))
	}
	writeJSONSuccess(w, map[string]any{
		"events": events,
		"limit":  limit,
		"offset": offset,
	})
}

// Summary handles GET /api/admin/audit/summary. ?days= sets the window.
func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 || days > 365 {
		days = auditSummaryDays
	}
	since := h.now().UTC().AddDate(0, 0, -days)

	summary, err := audit.Summarize(r.Context(), h.queries, since)
	if err != nil {
		logAndJSONError(w, "failed to summarize audit events", "error", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"summary": summary,
		"dropped": h.recorder.Dropped(),
	})
}
