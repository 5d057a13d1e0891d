// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/olegiv/concierge/internal/inquiry"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/testutil"
)

// stubRelay records payloads and fails when err is set.
type stubRelay struct {
	mu       sync.Mutex
	payloads []inquiry.Payload
	err      error
}

func (s *stubRelay) Send(_ context.Context, p inquiry.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

func newTestContactHandler(t *testing.T, relay inquiry.Relayer) (*ContactHandler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	svc := inquiry.NewService(env.queries, inquiry.Config{
		Relay:        relay,
		ContactEmail: "reservations@example.com",
	}, testutil.TestLoggerSilent())
	return NewContactHandler(env.renderer, svc, nil, env.catalog, testutil.TestLoggerSilent()), env
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validContactForm() url.Values {
	return url.Values{
		"kind":    {"contact"},
		"name":    {"Jane Doe"},
		"email":   {"Jane@Example.com"},
		"message": {"We would like a villa for August."},
	}
}

func TestContactHandler_Form_PrefillsItem(t *testing.T) {
	h, env := newTestContactHandler(t, nil)

	w := env.serve(h.Form, httptest.NewRequest(http.MethodGet, "/contact?kind=villa&item=casa-del-faro", nil))

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, `name="item_slug" value="casa-del-faro"`) {
		t.Error("expected item slug carried into the form")
	}
	if !strings.Contains(body, "Casa del Faro") {
		t.Error("expected item title on the form")
	}
	if !strings.Contains(body, `name="check_in"`) {
		t.Error("villa inquiries should ask for dates")
	}
}

func TestContactHandler_Form_IgnoresInvalidKind(t *testing.T) {
	h, env := newTestContactHandler(t, nil)

	w := env.serve(h.Form, httptest.NewRequest(http.MethodGet, "/contact?kind=spaceship&item=../etc", nil))

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, `name="kind" value="contact"`) {
		t.Error("invalid kind should fall back to contact")
	}
	if strings.Contains(body, "../etc") {
		t.Error("invalid item slug should be dropped")
	}
}

func TestContactHandler_Submit_Relayed(t *testing.T) {
	relay := &stubRelay{}
	h, env := newTestContactHandler(t, relay)

	w := env.serve(h.Submit, postForm("/contact", validContactForm()))

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Thank you.") {
		t.Error("expected confirmation message")
	}
	if strings.Contains(body, "mailto:reservations@example.com?subject=") {
		t.Error("relayed inquiry should not offer the mailto fallback")
	}
	if len(relay.payloads) != 1 {
		t.Fatalf("relay received %d payloads; want 1", len(relay.payloads))
	}
	if relay.payloads[0].Email != "jane@example.com" {
		t.Errorf("payload email = %q; want normalized address", relay.payloads[0].Email)
	}

	items, err := env.queries.ListInquiries(context.Background(), store.ListInquiriesParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListInquiries: %v", err)
	}
	if len(items) != 1 || items[0].Status != store.InquiryRelayed {
		t.Errorf("stored inquiries = %+v; want one relayed", items)
	}
}

func TestContactHandler_Submit_RelayFailureOffersMailto(t *testing.T) {
	relay := &stubRelay{err: errors.New("relay down")}
	h, env := newTestContactHandler(t, relay)

	w := env.serve(h.Submit, postForm("/contact", validContactForm()))

	assertStatus(t, w.Code, http.StatusOK)
	if !strings.Contains(w.Body.String(), "mailto:reservations@example.com?subject=") {
		t.Error("expected mailto fallback link")
	}

	items, err := env.queries.ListInquiries(context.Background(), store.ListInquiriesParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListInquiries: %v", err)
	}
	if len(items) != 1 || items[0].Status != store.InquiryFailed {
		t.Errorf("stored inquiries = %+v; want one failed", items)
	}
}

func TestContactHandler_Submit_ValidationErrors(t *testing.T) {
	relay := &stubRelay{}
	h, env := newTestContactHandler(t, relay)

	form := validContactForm()
	form.Set("email", "not-an-email")
	form.Set("message", "")

	w := env.serve(h.Submit, postForm("/contact", form))

	assertStatus(t, w.Code, http.StatusUnprocessableEntity)
	body := w.Body.String()
	if !strings.Contains(body, `class="error"`) {
		t.Error("expected field errors in the form")
	}
	if !strings.Contains(body, `value="Jane Doe"`) {
		t.Error("entered values should be kept")
	}
	if len(relay.payloads) != 0 {
		t.Error("invalid inquiry must not be relayed")
	}
}

func TestContactHandler_Submit_NonNumericGuests(t *testing.T) {
	h, env := newTestContactHandler(t, &stubRelay{})

	form := validContactForm()
	form.Set("kind", "villa")
	form.Set("item_slug", "casa-del-faro")
	form.Set("guests", "lots")

	w := env.serve(h.Submit, postForm("/contact", form))

	assertStatus(t, w.Code, http.StatusUnprocessableEntity)
}

func TestContactHandler_Submit_Honeypot(t *testing.T) {
	relay := &stubRelay{}
	h, env := newTestContactHandler(t, relay)

	form := validContactForm()
	form.Set("website", "http://spam.example")

	w := env.serve(h.Submit, postForm("/contact", form))

	assertStatus(t, w.Code, http.StatusOK)
	if len(relay.payloads) != 0 {
		t.Error("honeypot submissions must be dropped silently")
	}
}

func TestContactHandler_APISubmit(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		relayErr    error
		wantStatus  int
		wantRelayed bool
		wantMailto  bool
	}{
		{
			name:        "relayed",
			body:        `{"kind":"contact","name":"Jane","email":"jane@example.com","message":"Hello"}`,
			wantStatus:  http.StatusOK,
			wantRelayed: true,
		},
		{
			name:       "relay failure",
			body:       `{"kind":"contact","name":"Jane","email":"jane@example.com","message":"Hello"}`,
			relayErr:   errors.New("timeout"),
			wantStatus: http.StatusOK,
			wantMailto: true,
		},
		{
			name:       "validation failure",
			body:       `{"kind":"contact","name":"","email":"jane@example.com","message":"Hello"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"kind":"contact","nickname":"J"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, env := newTestContactHandler(t, &stubRelay{err: tt.relayErr})
			req := httptest.NewRequest(http.MethodPost, "/api/inquiries", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := env.serve(h.APISubmit, req)

			assertStatus(t, w.Code, tt.wantStatus)
			resp := decodeResponse(t, w)
			if tt.wantStatus != http.StatusOK {
				if resp["success"] != false {
					t.Errorf("success = %v; want false", resp["success"])
				}
				return
			}
			if resp["relayed"] != tt.wantRelayed {
				t.Errorf("relayed = %v; want %v", resp["relayed"], tt.wantRelayed)
			}
			mailto, _ := resp["mailto"].(string)
			if tt.wantMailto != strings.HasPrefix(mailto, "mailto:") {
				t.Errorf("mailto = %q; want present = %v", mailto, tt.wantMailto)
			}
		})
	}
}

func TestContactHandler_APISubmit_FieldErrors(t *testing.T) {
	h, env := newTestContactHandler(t, &stubRelay{})
	req := httptest.NewRequest(http.MethodPost, "/api/inquiries",
		strings.NewReader(`{"kind":"villa","name":"Jane","email":"bad","message":"Hi"}`))

	w := env.serve(h.APISubmit, req)

	assertStatus(t, w.Code, http.StatusBadRequest)
	resp := decodeResponse(t, w)
	fields, ok := resp["fields"].(map[string]any)
	if !ok {
		t.Fatalf("fields = %v; want object", resp["fields"])
	}
	for _, f := range []string{"email", "item_slug"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for %s, got %v", f, fields)
		}
	}
}
