// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(cfg SecurityHeadersConfig, path string) http.Header {
	h := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Header()
}

func TestSecurityHeadersModes(t *testing.T) {
	prod := serveWithHeaders(DefaultSecurityHeadersConfig(false), "/")
	for _, name := range []string{
		"Content-Security-Policy", "Strict-Transport-Security", "X-Frame-Options",
		"X-Content-Type-Options", "Referrer-Policy", "Permissions-Policy",
	} {
		assert.NotEmpty(t, prod.Get(name), name)
	}
	assert.Equal(t, "max-age=31536000; includeSubDomains", prod.Get("Strict-Transport-Security"))
	assert.Equal(t, "SAMEORIGIN", prod.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", prod.Get("X-Content-Type-Options"))
	assert.Contains(t, prod.Get("Content-Security-Policy"), "upgrade-insecure-requests")

	dev := serveWithHeaders(DefaultSecurityHeadersConfig(true), "/")
	assert.Empty(t, dev.Get("Strict-Transport-Security"))
	assert.Contains(t, dev.Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotContains(t, dev.Get("Content-Security-Policy"), "upgrade-insecure-requests")
}

func TestSecurityHeadersExcludePaths(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.ExcludePaths = []string{"/api/"}

	for path, want := range map[string]bool{
		"/":                    true,
		"/villas/casa-azzurra": true,
		"/api/villas":          false,
		"/api/chat":            false,
	} {
		got := serveWithHeaders(cfg, path).Get("Content-Security-Policy") != ""
		assert.Equal(t, want, got, path)
	}
}

func TestSecurityHeadersHSTSPreload(t *testing.T) {
	h := serveWithHeaders(SecurityHeadersConfig{
		HSTSMaxAge:            63072000,
		HSTSIncludeSubDomains: true,
		HSTSPreload:           true,
	}, "/")
	assert.Equal(t, "max-age=63072000; includeSubDomains; preload", h.Get("Strict-Transport-Security"))
	assert.Empty(t, h.Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
}

func TestBuildCSP(t *testing.T) {
	csp := buildCSP(map[string]string{
		"upgrade-insecure-requests": "",
		"img-src":                   "'self'",
		"default-src":               "'self'",
		"worker-src":                "'self'",
		"script-src":                "'self' 'unsafe-inline'",
	})
	assert.Equal(t,
		"default-src 'self'; script-src 'self' 'unsafe-inline'; img-src 'self'; upgrade-insecure-requests; worker-src 'self'",
		csp)
}

func TestDefaultCSPAllowsHCaptcha(t *testing.T) {
	for _, isDev := range []bool{true, false} {
		csp := DefaultSecurityHeadersConfig(isDev).ContentSecurityPolicy
		assert.Contains(t, csp, "https://*.hcaptcha.com")
		assert.Equal(t, isDev,
			strings.Contains(csp, "script-src 'self' https://hcaptcha.com https://*.hcaptcha.com 'unsafe-inline'"),
			"isDev=%v", isDev)
	}
}

func TestBuildPermissionsPolicySorted(t *testing.T) {
	assert.Equal(t, "camera=(), usb=()", buildPermissionsPolicy(map[string]string{"usb": "()", "camera": "()"}))
}
