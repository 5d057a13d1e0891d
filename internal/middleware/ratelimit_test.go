// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLimiterCache(t *testing.T) {
	lc := newLimiterCache[string](1, 2)

	a := lc.get("198.51.100.1")
	if lc.get("198.51.100.1") != a {
		t.Error("get() should return the same limiter for a key")
	}
	lc.get("198.51.100.2")
	if lc.size() != 2 {
		t.Errorf("size() = %d, want 2", lc.size())
	}

	if lc.clearIfExceeds(5) {
		t.Error("clearIfExceeds(5) should not clear 2 entries")
	}
	if !lc.clearIfExceeds(1) {
		t.Error("clearIfExceeds(1) should clear 2 entries")
	}
	if lc.size() != 0 {
		t.Errorf("size() after clear = %d, want 0", lc.size())
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter("test", 0.001, 2)

	for i := range 2 {
		if !rl.Allow("192.0.2.1") {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if rl.Allow("192.0.2.1") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("192.0.2.2") {
		t.Error("other IPs have their own budget")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter("chat", 0.001, 1)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d status = %d, want %d", i+1, rr.Code, want)
		}
		if want == http.StatusTooManyRequests && rr.Header().Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", rr.Header().Get("Content-Type"))
		}
	}
}

func TestRateLimiterHTMLMiddlewareIgnoresGET(t *testing.T) {
	rl := NewRateLimiter("contact", 0.001, 1)
	handler := rl.HTMLMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method string) int {
		req := httptest.NewRequest(method, "/contact", nil)
		req.RemoteAddr = "192.0.2.20:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for range 3 {
		if code := send(http.MethodGet); code != http.StatusOK {
			t.Fatalf("GET status = %d, want 200", code)
		}
	}
	if code := send(http.MethodPost); code != http.StatusOK {
		t.Errorf("first POST status = %d, want 200", code)
	}
	if code := send(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("second POST status = %d, want 429", code)
	}
}
