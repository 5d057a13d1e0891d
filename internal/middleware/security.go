// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// SecurityHeadersConfig selects the response hardening headers.
// Empty string fields omit their header.
type SecurityHeadersConfig struct {
	IsDevelopment bool // disables HSTS

	ContentSecurityPolicy string
	FrameOptions          string // DENY or SAMEORIGIN
	ReferrerPolicy        string
	PermissionsPolicy     string

	HSTSMaxAge            int // seconds; 0 disables HSTS
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	// ExcludePaths are path prefixes served without these headers.
	ExcludePaths []string
}

// cspOrder fixes the position of known directives; unknown ones follow
// alphabetically.
var cspOrder = []string{
	"default-src", "script-src", "style-src", "img-src", "font-src",
	"connect-src", "frame-src", "object-src", "base-uri", "form-action",
	"frame-ancestors", "upgrade-insecure-requests",
}

const hcaptchaHosts = "https://hcaptcha.com https://*.hcaptcha.com"

// DefaultSecurityHeadersConfig returns the site's policy. Pages embed the
// hCaptcha widget on the contact form; everything else is same-origin.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	csp := map[string]string{
		"default-src": "'self'",
		"script-src":  "'self' " + hcaptchaHosts,
		"style-src":   "'self' 'unsafe-inline' " + hcaptchaHosts,
		"img-src":     "'self' data: blob: https:",
		"font-src":    "'self' data:",
		"connect-src": "'self' " + hcaptchaHosts,
		"frame-src":   "'self' " + hcaptchaHosts,
		"object-src":  "'none'",
		"base-uri":    "'self'",
		"form-action": "'self' mailto:",
	}
	if isDev {
		csp["script-src"] += " 'unsafe-inline'"
	} else {
		csp["frame-ancestors"] = "'self'"
		csp["upgrade-insecure-requests"] = ""
	}

	denied := map[string]string{}
	for _, feature := range []string{
		"accelerometer", "browsing-topics", "camera", "geolocation", "gyroscope",
		"interest-cohort", "magnetometer", "microphone", "payment", "usb",
	} {
		denied[feature] = "()"
	}

	return SecurityHeadersConfig{
		IsDevelopment:         isDev,
		ContentSecurityPolicy: buildCSP(csp),
		FrameOptions:          "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     buildPermissionsPolicy(denied),
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: !isDev,
	}
}

// buildCSP joins directives into a Content-Security-Policy value. A
// directive with an empty value is emitted bare.
func buildCSP(directives map[string]string) string {
	keys := slices.Clone(cspOrder)
	for _, k := range slices.Sorted(maps.Keys(directives)) {
		if !slices.Contains(cspOrder, k) {
			keys = append(keys, k)
		}
	}

	var parts []string
	for _, k := range keys {
		v, ok := directives[k]
		switch {
		case !ok:
		case v == "":
			parts = append(parts, k)
		default:
			parts = append(parts, k+" "+v)
		}
	}
	return strings.Join(parts, "; ")
}

// buildPermissionsPolicy renders feature=allowlist pairs sorted by feature.
func buildPermissionsPolicy(policies map[string]string) string {
	parts := make([]string, 0, len(policies))
	for _, k := range slices.Sorted(maps.Keys(policies)) {
		parts = append(parts, k+"="+policies[k])
	}
	return strings.Join(parts, ", ")
}

// headers resolves the configuration into the header pairs to send.
func (c SecurityHeadersConfig) headers() [][2]string {
	h := [][2]string{{"X-Content-Type-Options", "nosniff"}}
	add := func(name, value string) {
		if value != "" {
			h = append(h, [2]string{name, value})
		}
	}
	add("Content-Security-Policy", c.ContentSecurityPolicy)
	add("X-Frame-Options", c.FrameOptions)
	add("Referrer-Policy", c.ReferrerPolicy)
	add("Permissions-Policy", c.PermissionsPolicy)

	if !c.IsDevelopment && c.HSTSMaxAge > 0 {
		hsts := "max-age=" + strconv.Itoa(c.HSTSMaxAge)
		if c.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if c.HSTSPreload {
			hsts += "; preload"
		}
		add("Strict-Transport-Security", hsts)
	}
	return h
}

// SecurityHeaders sets the configured hardening headers on every response
// outside cfg.ExcludePaths.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	pairs := cfg.headers()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasAnyPrefix(r.URL.Path, cfg.ExcludePaths) {
				for _, p := range pairs {
					w.Header().Set(p[0], p[1])
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
