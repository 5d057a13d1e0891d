// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package inquiry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/concierge/internal/util"
)

// Relay configuration constants
const (
	RelayTimeout   = 15 * time.Second // HTTP request timeout
	MaxResponseLen = 4 * 1024         // Maximum response body kept in errors
	UserAgent      = "concierge/1.0"  // User-Agent header value
)

// ErrRelayFailed is returned when the form relay did not accept an inquiry.
var ErrRelayFailed = errors.New("inquiry: relay failed")

// Relayer forwards an inquiry to an external service.
type Relayer interface {
	Send(ctx context.Context, p Payload) error
}

// Payload is the JSON document posted to the form relay.
type Payload struct {
	ID       int64  `json:"id"`
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Subject  string `json:"_subject"`
	ReplyTo  string `json:"_replyto"`
	ItemSlug string `json:"item,omitempty"`
	Message  string `json:"message"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
	Guests   int    `json:"guests,omitempty"`
	Language string `json:"language,omitempty"`
}

// NewPayload builds the relay document for a stored inquiry.
func NewPayload(id int64, in Input) Payload {
	return Payload{
		ID:       id,
		Kind:     in.Kind,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Subject:  in.DefaultSubject(),
		ReplyTo:  in.Email,
		ItemSlug: in.ItemSlug,
		Message:  in.Message,
		CheckIn:  in.CheckIn,
		CheckOut: in.CheckOut,
		Guests:   in.Guests,
		Language: in.Language,
	}
}

// HTTPRelay posts inquiries to a form-relay endpoint. It makes one attempt.
type HTTPRelay struct {
	url    string
	client *http.Client
}

// NewHTTPRelay creates a relay posting to endpoint. A nil client uses a
// default client with RelayTimeout that refuses private addresses.
func NewHTTPRelay(endpoint string, client *http.Client) *HTTPRelay {
	if client == nil {
		client = &http.Client{
			Timeout: RelayTimeout,
			Transport: &http.Transport{
				DialContext:         util.SSRFSafeDialContext(&net.Dialer{Timeout: 5 * time.Second}),
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPRelay{url: endpoint, client: client}
}

// Send posts p to the relay. Any non-2xx response wraps ErrRelayFailed.
func (r *HTTPRelay) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrRelayFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	return fmt.Errorf("%w: HTTP %d: %s", ErrRelayFailed, resp.StatusCode, strings.TrimSpace(string(data)))
}
