// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/util"
)

// maxTrackedClients bounds the per-IP limiter map.
const maxTrackedClients = 10000

// limiterCache hands out one token bucket per key.
type limiterCache[K comparable] struct {
	mu       sync.Mutex
	limiters map[K]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	l, ok := lc.limiters[key]
	if !ok {
		l = rate.NewLimiter(lc.limit, lc.burst)
		lc.limiters[key] = l
	}
	return l
}

// clearIfExceeds forgets every key once more than maxSize are tracked and
// reports whether it did.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) <= maxSize {
		return false
	}
	clear(lc.limiters)
	return true
}

func (lc *limiterCache[K]) size() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.limiters)
}

// RateLimiter is a named per-IP token bucket. The site keeps one per
// protected surface: login, contact, chat and the API as a whole.
type RateLimiter struct {
	name  string
	cache *limiterCache[string]
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
// Non-positive values become 1.
func NewRateLimiter(name string, rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	return &RateLimiter{name: name, cache: newLimiterCache[string](rps, max(burst, 1))}
}

// Allow takes a token for ip.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.cache.clearIfExceeds(maxTrackedClients) {
		slog.Info("rate limiter reset", "limiter", rl.name, "limit", maxTrackedClients)
	}
	return rl.cache.get(ip).Allow()
}

// Middleware limits every request and answers over-limit API calls with JSON.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return rl.guard(false, true)
}

// HTMLMiddleware limits only form POSTs and answers with plain text.
func (rl *RateLimiter) HTMLMiddleware() func(http.Handler) http.Handler {
	return rl.guard(true, false)
}

func (rl *RateLimiter) guard(postOnly, asJSON bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if postOnly && r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if ip := util.ClientIP(r); !rl.Allow(ip) {
				slog.Warn("rate limit exceeded", "limiter", rl.name, "ip", ip, "path", r.URL.Path)
				tooManyRequests(w, r, asJSON)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tooManyRequests writes a localized 429.
func tooManyRequests(w http.ResponseWriter, r *http.Request, asJSON bool) {
	msg := i18n.T(GetLang(r), "error.rate_limited")
	if asJSON {
		writeJSONError(w, http.StatusTooManyRequests, msg)
		return
	}
	http.Error(w, msg, http.StatusTooManyRequests)
}
