// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package captcha verifies hCaptcha responses submitted with the contact forms.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// hCaptcha verification endpoint
	verifyURL = "https://api.hcaptcha.com/siteverify"
	// Timeout for verification requests
	verifyTimeout = 10 * time.Second

	// FormField is the form field the hCaptcha widget fills in.
	FormField = "h-captcha-response"
)

// hCaptcha test keys; they always pass verification.
const (
	TestSiteKey   = "10000000-ffff-ffff-ffff-000000000001"
	TestSecretKey = "0x0000000000000000000000000000000000000000"
)

// Translation keys carried by Error.
const (
	CodeRequired     = "captcha.required"
	CodeInvalid      = "captcha.invalid"
	CodeVerification = "captcha.verification"
)

// Error is a failed verification. Code is a translation key.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the translation key of a verification error, or "".
func Code(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// verifyResponse represents the hCaptcha API response.
type verifyResponse struct {
	Success     bool      `json:"success"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes"`
}

// Verifier checks hCaptcha responses. A Verifier without keys is disabled
// and accepts everything.
type Verifier struct {
	siteKey   string
	secretKey string
	verifyURL string
	client    *http.Client
	logger    *slog.Logger
}

// New creates a Verifier. Leave both keys empty to disable verification.
func New(siteKey, secretKey string, logger *slog.Logger) *Verifier {
	return &Verifier{
		siteKey:   siteKey,
		secretKey: secretKey,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: verifyTimeout},
		logger:    logger,
	}
}

// Enabled reports whether responses are checked.
func (v *Verifier) Enabled() bool {
	return v != nil && v.siteKey != "" && v.secretKey != ""
}

// SiteKey returns the public site key.
func (v *Verifier) SiteKey() string {
	if v == nil {
		return ""
	}
	return v.siteKey
}

// Verify checks response with the hCaptcha API. It returns nil when the
// response is valid or verification is disabled, and an *Error otherwise.
func (v *Verifier) Verify(ctx context.Context, response, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}

	response = strings.TrimSpace(response)
	if response == "" {
		v.logger.Debug("captcha response empty - visitor did not complete captcha")
		return &Error{Code: CodeRequired}
	}

	result, err := v.verify(ctx, response, remoteIP)
	if err != nil {
		v.logger.Error("captcha verification error", "error", err)
		return &Error{Code: CodeVerification, Err: err}
	}

	if !result.Success {
		v.logger.Warn("captcha verification failed",
			"error_codes", result.ErrorCodes,
			"remote_ip", remoteIP,
		)
		return &Error{Code: CodeInvalid, Err: fmt.Errorf("rejected: %s", strings.Join(result.ErrorCodes, ","))}
	}
	return nil
}

func (v *Verifier) verify(ctx context.Context, response, remoteIP string) (*verifyResponse, error) {
	data := url.Values{}
	data.Set("secret", v.secretKey)
	data.Set("response", response)
	data.Set("sitekey", v.siteKey)
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("captcha server returned HTTP %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse captcha response: %w", err)
	}
	return &result, nil
}

// Widget returns the hCaptcha script and widget markup, or "" when disabled.
func (v *Verifier) Widget(lang string) template.HTML {
	if !v.Enabled() {
		return ""
	}

	var html strings.Builder
	html.WriteString(`<script src="https://js.hcaptcha.com/1/api.js?hl=`)
	html.WriteString(url.QueryEscape(lang))
	html.WriteString(`" async defer></script>`)
	html.WriteString(fmt.Sprintf(
		`<div class="h-captcha" data-sitekey="%s"></div>`,
		template.HTMLEscapeString(v.siteKey),
	))
	return template.HTML(html.String())
}

// ResponseFromForm extracts the widget response from a submitted form.
func ResponseFromForm(r *http.Request) string {
	return r.FormValue(FormField)
}
