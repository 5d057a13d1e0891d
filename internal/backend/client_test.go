// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", Token: "secret-token", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestNewRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "not a url", "https://"} {
		_, err := New(Options{BaseURL: raw})
		assert.Error(t, err, "BaseURL %q", raw)
	}
}

func TestVillasEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/villas", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[{"slug":"villa-a","name":"Villa A","price":"€10,000 / week","bedrooms":4,"private":true}]}`))
	})

	villas, err := c.Villas(context.Background())
	require.NoError(t, err)
	require.Len(t, villas, 1)
	assert.Equal(t, "villa-a", villas[0].Slug)
	assert.Equal(t, 4, villas[0].Bedrooms)
	assert.True(t, villas[0].Private)
	assert.Equal(t, "€10,000 / week", villas[0].PriceText)
}

func TestBareResponses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/yachts":
			_, _ = w.Write([]byte(`[{"slug":"my-a","name":"M/Y A","cabins":5}]`))
		case "/posts/hello-world":
			_, _ = w.Write([]byte(`{"slug":"hello-world","title":"Hello","tags":["news"],"published_at":"2026-01-02T10:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	yachts, err := c.Yachts(ctx)
	require.NoError(t, err)
	require.Len(t, yachts, 1)
	assert.Equal(t, 5, yachts[0].Cabins)

	post, err := c.Post(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, post.Tags)
	assert.Equal(t, 2026, post.PublishedAt.Year())
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, http.NotFound)

	_, err := c.Villa(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, err := c.Services(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Contains(t, se.Body, "maintenance")
	assert.NotErrorIs(t, err, catalog.ErrNotFound)
}

func TestSlugIsEscaped(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Service(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/services/a%2Fb", gotPath)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Villas(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostEvents(t *testing.T) {
	var got eventsPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/audit/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := c.PostEvents(context.Background(), []audit.Event{
		{Type: audit.TypePageView, SessionID: "sid-1", Path: "/villas"},
	})
	require.NoError(t, err)
	require.Len(t, got.Events, 1)
	assert.Equal(t, audit.TypePageView, got.Events[0].Type)
	assert.Equal(t, "sid-1", got.Events[0].SessionID)

	assert.NoError(t, c.PostEvents(context.Background(), nil))
}

func TestUnwrapEnvelope(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"data":[1,2]}`, `[1,2]`},
		{`{"data":null,"slug":"x"}`, `{"data":null,"slug":"x"}`},
		{`{"slug":"x"}`, `{"slug":"x"}`},
		{`[1]`, `[1]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(unwrapEnvelope([]byte(tt.in))), tt.in)
	}
}
