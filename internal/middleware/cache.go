// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// StaticCache lets browsers and proxies keep assets for maxAge.
func StaticCache(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int64(maxAge/time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}

// NoStoreForVIP keeps pages rendered for a signed-in member out of shared
// caches, since they may list private villas.
func NoStoreForVIP() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetSession(r) != nil {
				h := w.Header()
				h.Set("Cache-Control", "private, no-store")
				h.Add("Vary", "Cookie")
			}
			next.ServeHTTP(w, r)
		})
	}
}
