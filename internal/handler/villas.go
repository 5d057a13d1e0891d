// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
)

// VillaListData holds the data for the villa listing page.
type VillaListData struct {
	Villas  []catalog.Villa
	Regions []catalog.Region
	Filter  catalog.Filter
	// ShowUnlock invites anonymous visitors to log in for private listings.
	ShowUnlock bool
}

// parseVillaFilter reads listing filters from the query string. Invalid
// values are ignored.
func parseVillaFilter(q url.Values) catalog.Filter {
	f := catalog.Filter{
		Region: strings.TrimSpace(q.Get("region")),
		Query:  strings.TrimSpace(q.Get("q")),
		Sort:   q.Get("sort"),
	}
	if n, err := strconv.Atoi(q.Get("bedrooms")); err == nil && n > 0 {
		f.MinBedrooms = n
	}
	if n, err := strconv.Atoi(q.Get("guests")); err == nil && n > 0 {
		f.Guests = n
	}
	if p, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil && p > 0 {
		f.MaxPrice = p
	}
	if !catalog.ValidSort(f.Sort) {
		f.Sort = catalog.SortFeatured
	}
	return f
}

// Villas handles GET /villas.
func (h *FrontendHandler) Villas(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetSession(r)
	filter := parseVillaFilter(r.URL.Query())

	villas, err := h.catalog.ListVillas(r.Context(), viewer, filter)
	if err != nil {
		h.logger.Error("failed to list villas", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
		return
	}
	regions, err := h.catalog.Regions(r.Context(), viewer)
	if err != nil {
		h.logger.Warn("failed to list regions", "error", err)
	}

	if filter.Query != "" {
		h.recorder.RecordRequest(r, audit.TypeUISearch, middleware.GetUserID(r), map[string]any{
			"query":   filter.Query,
			"results": len(villas),
		})
	}

	renderPage(w, r, h.renderer, http.StatusOK, "villas", render.TemplateData{
		Title: i18n.T(middleware.GetLang(r), "villas.title"),
		Data: VillaListData{
			Villas:     villas,
			Regions:    regions,
			Filter:     filter,
			ShowUnlock: !viewer.CanViewPrivate(),
		},
	})
}

// Villa handles GET /villas/{slug}. Private villas answer 404 to visitors
// without access.
func (h *FrontendHandler) Villa(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	villa, ok := requireEntity(w, r, h.renderer, "villa", slug, func() (catalog.Villa, error) {
		return h.catalog.GetVilla(r.Context(), middleware.GetSession(r), slug)
	})
	if !ok {
		return
	}

	h.recorder.RecordRequest(r, audit.TypeVillaView, middleware.GetUserID(r), map[string]any{
		"slug":    villa.Slug,
		"private": villa.Private,
	})

	data := render.TemplateData{
		Title:       villa.Name,
		Description: villa.Summary,
		Data:        villa,
	}
	if len(villa.Images) > 0 && !villa.Private {
		data.OGImage = h.siteURL + villa.Images[0]
	}
	renderPage(w, r, h.renderer, http.StatusOK, "villa", data)
}

// Yachts handles GET /yachts.
func (h *FrontendHandler) Yachts(w http.ResponseWriter, r *http.Request) {
	yachts, err := h.catalog.Yachts(r.Context())
	if err != nil {
		h.logger.Error("failed to list yachts", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "yachts", render.TemplateData{
		Title: i18n.T(middleware.GetLang(r), "yachts.title"),
		Data:  yachts,
	})
}

// Yacht handles GET /yachts/{slug}.
func (h *FrontendHandler) Yacht(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	yacht, ok := requireEntity(w, r, h.renderer, "yacht", slug, func() (catalog.Yacht, error) {
		return h.catalog.GetYacht(r.Context(), slug)
	})
	if !ok {
		return
	}

	h.recorder.RecordRequest(r, audit.TypeYachtView, middleware.GetUserID(r), map[string]any{
		"slug": yacht.Slug,
	})

	data := render.TemplateData{
		Title:       yacht.Name,
		Description: yacht.Summary,
		Data:        yacht,
	}
	if len(yacht.Images) > 0 {
		data.OGImage = h.siteURL + yacht.Images[0]
	}
	renderPage(w, r, h.renderer, http.StatusOK, "yacht", data)
}
