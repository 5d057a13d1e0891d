// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/concierge/internal/store"
)

func TestFrontendHandler_Blog(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	tests := []struct {
		name     string
		url      string
		want     int
		contains string
		excludes string
	}{
		{"first page", "/blog", http.StatusOK, "A Summer on the Riviera", ""},
		{"tag filter", "/blog?tag=events", http.StatusOK, "Planning a Villa Wedding", "The Courchevel Season Guide"},
		{"tag is slugified", "/blog?tag=Events", http.StatusOK, "Planning a Villa Wedding", "A Summer on the Riviera"},
		{"page past the end", "/blog?page=9", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.serve(h.Blog, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assertStatus(t, w.Code, tt.want)
			body := w.Body.String()
			if tt.contains != "" && !strings.Contains(body, tt.contains) {
				t.Errorf("body should contain %q", tt.contains)
			}
			if tt.excludes != "" && strings.Contains(body, tt.excludes) {
				t.Errorf("body should not contain %q", tt.excludes)
			}
		})
	}
}

func TestFrontendHandler_Post(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	req := requestWithURLParams(httptest.NewRequest(http.MethodGet, "/blog/summer-on-the-riviera", nil),
		map[string]string{"slug": "summer-on-the-riviera"})
	w := env.serve(h.Post, req)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "By Claire Dumas") {
		t.Error("expected author byline")
	}
	if !strings.Contains(body, `<meta name="description"`) {
		t.Error("expected meta description")
	}

	req = requestWithURLParams(httptest.NewRequest(http.MethodGet, "/blog/missing", nil),
		map[string]string{"slug": "missing"})
	w = env.serve(h.Post, req)
	assertStatus(t, w.Code, http.StatusNotFound)
}

func TestFrontendHandler_TagLinkRoundTrip(t *testing.T) {
	h, env := newTestFrontendHandler(t)

	if err := env.queries.UpsertPost(context.Background(), store.UpsertPostParams{
		Slug: "tasting-menus", Title: "Tasting Menus of the Coast", Excerpt: "Where to book.",
		Body: "Starred tables.", Author: "Claire Dumas", Tags: `["Food & Wine"]`,
		PublishedAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}

	req := requestWithURLParams(httptest.NewRequest(http.MethodGet, "/blog/tasting-menus", nil),
		map[string]string{"slug": "tasting-menus"})
	w := env.serve(h.Post, req)
	assertStatus(t, w.Code, http.StatusOK)

	m := regexp.MustCompile(`href="(/blog\?tag=[^"]*)"`).FindStringSubmatch(w.Body.String())
	if m == nil {
		t.Fatal("post page should link its tag")
	}
	if m[1] != "/blog?tag=food-wine" {
		t.Errorf("tag link = %q, want /blog?tag=food-wine", m[1])
	}

	w = env.serve(h.Blog, httptest.NewRequest(http.MethodGet, m[1], nil))
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "Tasting Menus of the Coast") {
		t.Error("following the tag link should list the post")
	}
	if !strings.Contains(body, `href="/blog?tag=food-wine" aria-current="true"`) {
		t.Error("active tag should be marked current")
	}
}
