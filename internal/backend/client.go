// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend is the client for the remote villa, yacht and blog REST
// backend. It implements catalog.Source and forwards audit events.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
)

// Client configuration constants
const (
	DefaultTimeout = 8 * time.Second
	MaxBodyLen     = 8 << 20 // Maximum response body to decode (8MB)
	MaxErrorLen    = 1024    // Maximum response body kept in StatusError
	UserAgent      = "concierge/1.0"
)

// ErrNotFound is returned for 404 responses. It matches catalog.ErrNotFound.
var ErrNotFound = fmt.Errorf("backend: %w", catalog.ErrNotFound)

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string        // optional bearer token
	Timeout    time.Duration // per-request timeout
	HTTPClient *http.Client
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// defaultHTTPClient is shared by clients that do not bring their own.
var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = defaultHTTPClient
	}
	return &Client{
		baseURL: base,
		token:   opts.Token,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
	}, nil
}

// do sends a request and decodes a JSON response into out, which may be nil.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyLen))
	if err != nil {
		return fmt.Errorf("reading backend response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		if len(data) > MaxErrorLen {
			data = data[:MaxErrorLen]
		}
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapEnvelope(data), out); err != nil {
		return fmt.Errorf("decoding backend %s: %w", path, err)
	}
	return nil
}

// unwrapEnvelope returns the "data" member of {"data": ...} responses and
// the body itself otherwise.
func unwrapEnvelope(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return body
	}
	return env.Data
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func itemPath(collection, slug string) string {
	return "/" + collection + "/" + url.PathEscape(slug)
}

// Villas implements catalog.Source.
func (c *Client) Villas(ctx context.Context) ([]catalog.Villa, error) {
	return get[[]catalog.Villa](ctx, c, "/villas")
}

// Villa implements catalog.Source.
func (c *Client) Villa(ctx context.Context, slug string) (catalog.Villa, error) {
	return get[catalog.Villa](ctx, c, itemPath("villas", slug))
}

// Yachts implements catalog.Source.
func (c *Client) Yachts(ctx context.Context) ([]catalog.Yacht, error) {
	return get[[]catalog.Yacht](ctx, c, "/yachts")
}

// Yacht implements catalog.Source.
func (c *Client) Yacht(ctx context.Context, slug string) (catalog.Yacht, error) {
	return get[catalog.Yacht](ctx, c, itemPath("yachts", slug))
}

// Services implements catalog.Source.
func (c *Client) Services(ctx context.Context) ([]catalog.Service, error) {
	return get[[]catalog.Service](ctx, c, "/services")
}

// Service implements catalog.Source.
func (c *Client) Service(ctx context.Context, slug string) (catalog.Service, error) {
	return get[catalog.Service](ctx, c, itemPath("services", slug))
}

// Posts implements catalog.Source.
func (c *Client) Posts(ctx context.Context) ([]catalog.Post, error) {
	return get[[]catalog.Post](ctx, c, "/posts")
}

// Post implements catalog.Source.
func (c *Client) Post(ctx context.Context, slug string) (catalog.Post, error) {
	return get[catalog.Post](ctx, c, itemPath("posts", slug))
}

// eventsPayload is the body of POST /audit/events.
type eventsPayload struct {
	Events []audit.Event `json:"events"`
}

// PostEvents forwards a batch of audit events. It implements audit.Forwarder.
func (c *Client) PostEvents(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/audit/events", eventsPayload{Events: events}, nil)
}

// Ping checks that the backend answers. Any 2xx on /health counts.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if errors.Is(err, ErrNotFound) {
		// backends without a health route are reachable if they answer at all
		return nil
	}
	return err
}

var (
	_ catalog.Source  = (*Client)(nil)
	_ audit.Forwarder = (*Client)(nil)
)
