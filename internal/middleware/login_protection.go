// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/concierge/internal/util"
)

// maxLockout caps the doubling lockout.
const maxLockout = 24 * time.Hour

// LoginProtection guards the VIP login form and the token endpoint. Each
// client IP is rate limited, and each member account is locked after
// repeated failures, for a period that doubles with every lockout.
// Accounts are keyed by normalized e-mail.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	failedAttempts map[string]*loginAttempt
	attemptsMu     sync.RWMutex

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtectionConfig tunes LoginProtection. Zero fields take the defaults.
type LoginProtectionConfig struct {
	IPRateLimit       float64       // login POSTs per second per IP
	IPBurst           int           // burst per IP
	MaxFailedAttempts int           // failures within AttemptWindow that lock the account
	LockoutDuration   time.Duration // first lockout; doubles on each repeat
	AttemptWindow     time.Duration // window for counting failures
}

// DefaultLoginProtectionConfig allows one login attempt every two seconds
// per IP and locks a member account for 15 minutes after five failures.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// withDefaults fills zero fields from DefaultLoginProtectionConfig.
func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	d := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = d.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = d.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = d.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = d.AttemptWindow
	}
	return c
}

// NewLoginProtection starts a LoginProtection and its cleanup loop. Call
// Stop to end the loop.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	lp := &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		failedAttempts:    make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               time.Now,
		stop:              make(chan struct{}),
	}
	go lp.cleanup()
	return lp
}

// CheckIPRateLimit reports whether ip may attempt another login now.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// lookup returns the tracked attempt for email, if any.
func (lp *LoginProtection) lookup(email string) (*loginAttempt, bool) {
	lp.attemptsMu.RLock()
	defer lp.attemptsMu.RUnlock()
	a, ok := lp.failedAttempts[util.NormalizeEmail(email)]
	return a, ok
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	a, ok := lp.lookup(email)
	if !ok {
		return false, 0
	}
	if remaining := a.lockedUntil.Sub(lp.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailedAttempt counts a failed login for email. When the failure
// locks the account it returns true and the lockout length.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	email = util.NormalizeEmail(email)
	now := lp.now()

	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	a, ok := lp.failedAttempts[email]
	switch {
	case !ok:
		lp.failedAttempts[email] = &loginAttempt{count: 1, firstFailed: now}
		return false, 0
	case now.Sub(a.firstFailed) > lp.attemptWindow:
		a.count, a.firstFailed = 1, now
		return false, 0
	}

	a.count++
	if a.count < lp.maxFailedAttempts {
		return false, 0
	}

	d := lp.backoff(a.lockouts)
	a.lockedUntil = now.Add(d)
	a.lockouts++
	a.count = 0

	slog.Warn("vip account locked after failed logins",
		"email", email, "lockouts", a.lockouts, "duration", d)
	return true, d
}

// backoff returns the lockout length after the given number of earlier lockouts.
func (lp *LoginProtection) backoff(previous int) time.Duration {
	d := lp.lockoutDuration
	for range previous {
		if d *= 2; d >= maxLockout {
			return maxLockout
		}
	}
	return d
}

// RecordSuccessfulLogin forgets failures for email.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.attemptsMu.Lock()
	delete(lp.failedAttempts, util.NormalizeEmail(email))
	lp.attemptsMu.Unlock()
}

// GetRemainingAttempts returns how many more failures email may make
// before it is locked.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	a, ok := lp.lookup(email)
	if !ok || lp.now().Sub(a.firstFailed) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-a.count, 0)
}

func (lp *LoginProtection) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			lp.cleanupStaleEntries()
		case <-lp.stop:
			return
		}
	}
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (lp *LoginProtection) Stop() {
	lp.once.Do(func() { close(lp.stop) })
}

// cleanupStaleEntries drops accounts whose lockout and counting window have
// both expired, and resets the IP limiters when too many are tracked.
func (lp *LoginProtection) cleanupStaleEntries() {
	if lp.ipLimiters.clearIfExceeds(maxTrackedClients) {
		slog.Info("login IP limiters reset", "limit", maxTrackedClients)
	}

	now := lp.now()
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()
	for email, a := range lp.failedAttempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.attemptWindow {
			delete(lp.failedAttempts, email)
		}
	}
}

// Middleware rate limits login POSTs per client IP. API paths get a JSON
// error; the HTML form gets plain text.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if ip := util.ClientIP(r); !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip, "path", r.URL.Path)
				tooManyRequests(w, r, isAPIRequest(r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
