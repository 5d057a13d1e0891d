// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/pricing"
)

// APIHandler serves the public catalog as JSON.
type APIHandler struct {
	catalog *catalog.Catalog
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(cat *catalog.Catalog) *APIHandler {
	return &APIHandler{catalog: cat}
}

// villaJSON adds the parsed price to a villa.
type villaJSON struct {
	catalog.Villa
	PriceInfo    pricing.Price `json:"price_info"`
	WeeklyPrice  float64       `json:"weekly_price,omitempty"`
	PriceDisplay string        `json:"price_display"`
}

func toVillaJSON(v catalog.Villa, lang string) villaJSON {
	p := v.Price()
	out := villaJSON{Villa: v, PriceInfo: p, PriceDisplay: pricing.Format(p, lang)}
	if weekly, ok := p.Weekly(); ok {
		out.WeeklyPrice = weekly
	}
	return out
}

// ListVillas handles GET /api/villas. It accepts the same filters as /villas.
func (h *APIHandler) ListVillas(w http.ResponseWriter, r *http.Request) {
	villas, err := h.catalog.ListVillas(r.Context(), middleware.GetSession(r), parseVillaFilter(r.URL.Query()))
	if err != nil {
		logAndJSONError(w, "failed to list villas", "error", err)
		return
	}

	lang := middleware.GetLang(r)
	out := make([]villaJSON, 0, len(villas))
	for _, v := range villas {
		out = append(out, toVillaJSON(v, lang))
	}
	writeJSONSuccess(w, map[string]any{
		"villas": out,
		"total":  len(out),
	})
}

// GetVilla handles GET /api/villas/{slug}.
func (h *APIHandler) GetVilla(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	villa, ok := requireEntityWithJSONError(w, "Villa", slug, func() (catalog.Villa, error) {
		return h.catalog.GetVilla(r.Context(), middleware.GetSession(r), slug)
	})
	if !ok {
		return
	}
	writeJSONSuccess(w, map[string]any{"villa": toVillaJSON(villa, middleware.GetLang(r))})
}
