// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/seo"
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	catalog     *catalog.Catalog
	siteURL     string
	disallowAll bool
	logger      *slog.Logger
}

// NewSEOHandler creates a new SEOHandler. disallowAll blocks all crawlers,
// which is what staging and development sites want.
func NewSEOHandler(cat *catalog.Catalog, siteURL string, disallowAll bool, logger *slog.Logger) *SEOHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SEOHandler{catalog: cat, siteURL: siteURL, disallowAll: disallowAll, logger: logger}
}

// Sitemap handles GET /sitemap.xml. Private villas are never listed.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := seo.NewSitemapBuilder(h.siteURL)
	b.AddHomepage()
	b.Add(seo.ChangeFreqWeekly, "0.8",
		seo.Entry{Path: "/villas"}, seo.Entry{Path: "/yachts"}, seo.Entry{Path: "/services"})
	b.Add(seo.ChangeFreqDaily, "0.6", seo.Entry{Path: "/blog"})
	b.Add(seo.ChangeFreqMonthly, "0.5", seo.Entry{Path: "/contact"})

	villas, err := h.catalog.ListVillas(ctx, nil, catalog.Filter{Sort: catalog.SortName})
	if err != nil {
		logAndInternalError(w, "failed to list villas for sitemap", "error", err)
		return
	}
	for _, v := range villas {
		b.Add(seo.ChangeFreqWeekly, "0.9", seo.Entry{Path: "/villas/" + v.Slug, UpdatedAt: v.UpdatedAt})
	}

	if yachts, err := h.catalog.Yachts(ctx); err == nil {
		for _, y := range yachts {
			b.Add(seo.ChangeFreqWeekly, "0.7", seo.Entry{Path: "/yachts/" + y.Slug, UpdatedAt: y.UpdatedAt})
		}
	} else {
		h.logger.Warn("failed to list yachts for sitemap", "error", err)
	}

	if services, err := h.catalog.Services(ctx); err == nil {
		for _, s := range services {
			b.Add(seo.ChangeFreqMonthly, "0.6", seo.Entry{Path: "/services/" + s.Slug})
		}
	} else {
		h.logger.Warn("failed to list services for sitemap", "error", err)
	}

	if posts, err := h.catalog.ListPosts(ctx, 1, 1000, ""); err == nil {
		for _, p := range posts.Posts {
			b.Add(seo.ChangeFreqMonthly, "0.6", seo.Entry{Path: "/blog/" + p.Slug, UpdatedAt: p.PublishedAt})
		}
	} else {
		h.logger.Warn("failed to list posts for sitemap", "error", err)
	}

	body, err := b.Build()
	if err != nil {
		logAndInternalError(w, "failed to build sitemap", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(body)
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.siteURL,
		DisallowAll: h.disallowAll,
	})))
}
