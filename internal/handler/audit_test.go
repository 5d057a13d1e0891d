// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/concierge/internal/audit"
)

func TestAuditHandler_ClientEvents(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuditHandler(env.recorder, env.queries)

	body := `{"events":[
		{"type":"ui.click","path":"/villas","metadata":{"href":"/contact"}},
		{"type":"ui.chat_open","path":"/"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/audit/events", strings.NewReader(body))
	w := env.serve(h.ClientEvents, req)

	assertStatus(t, w.Code, http.StatusAccepted)
	assert.Equal(t, float64(2), decodeResponse(t, w)["accepted"])

	env.recorder.Flush(context.Background())

	w = env.serve(h.List, httptest.NewRequest(http.MethodGet, "/api/admin/audit?type=ui.click", nil))
	assertStatus(t, w.Code, http.StatusOK)
	events, ok := decodeResponse(t, w)["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "/villas", events[0].(map[string]any)["path"])
}

func TestAuditHandler_ClientEvents_Rejected(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuditHandler(env.recorder, env.queries)

	var tooMany strings.Builder
	tooMany.WriteString(`{"events":[`)
	for i := range audit.MaxClientBatch + 1 {
		if i > 0 {
			tooMany.WriteString(",")
		}
		tooMany.WriteString(`{"type":"ui.click"}`)
	}
	tooMany.WriteString(`]}`)

	tests := []struct {
		name string
		body string
	}{
		{"server-only type", `{"events":[{"type":"vip.login"}]}`},
		{"batch too large", tooMany.String()},
		{"malformed", `{"events":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/audit/events", strings.NewReader(tt.body))
			w := env.serve(h.ClientEvents, req)
			assertStatus(t, w.Code, http.StatusBadRequest)
		})
	}
}

func TestAuditHandler_ListAndSummary(t *testing.T) {
	env := newTestEnv(t)
	h := NewAuditHandler(env.recorder, env.queries)

	for i := range 3 {
		env.recorder.Record(audit.Event{Type: audit.TypeVillaView, SessionID: "sess-a", Path: fmt.Sprintf("/villas/v%d", i)})
	}
	env.recorder.Record(audit.Event{Type: audit.TypeLogin, SessionID: "sess-b", UserID: 1})
	env.recorder.Flush(context.Background())

	w := env.serve(h.List, httptest.NewRequest(http.MethodGet, "/api/admin/audit?session=sess-a&limit=2", nil))
	assertStatus(t, w.Code, http.StatusOK)
	resp := decodeResponse(t, w)
	assert.Len(t, resp["events"], 2)
	assert.Equal(t, float64(2), resp["limit"])

	w = env.serve(h.Summary, httptest.NewRequest(http.MethodGet, "/api/admin/audit/summary?days=30", nil))
	assertStatus(t, w.Code, http.StatusOK)
	summary, ok := decodeResponse(t, w)["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), summary["total"])
	byType, _ := summary["by_type"].(map[string]any)
	assert.Equal(t, float64(3), byType[audit.TypeVillaView])
}
