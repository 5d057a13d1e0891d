// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
)

// Listing sizes for the public site.
const (
	homeFeaturedVillas = 3
	homeLatestPosts    = 3
	blogPerPage        = 6
)

// FrontendHandler serves the public site pages.
type FrontendHandler struct {
	renderer *render.Renderer
	catalog  *catalog.Catalog
	recorder *audit.Recorder
	logger   *slog.Logger
	siteURL  string
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(renderer *render.Renderer, cat *catalog.Catalog, rec *audit.Recorder, siteURL string, logger *slog.Logger) *FrontendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrontendHandler{
		renderer: renderer,
		catalog:  cat,
		recorder: rec,
		logger:   logger,
		siteURL:  strings.TrimSuffix(siteURL, "/"),
	}
}

// HomeData holds the data for the home page.
type HomeData struct {
	Featured []catalog.Villa
	Services []catalog.Service
	Posts    []catalog.Post
}

// Home handles GET /.
// Sections that fail to load are left empty so the page still renders.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data HomeData

	featured, err := h.catalog.FeaturedVillas(ctx, homeFeaturedVillas)
	if err != nil {
		h.logger.Error("failed to load featured villas", "error", err)
	}
	data.Featured = featured

	services, err := h.catalog.Services(ctx)
	if err != nil {
		h.logger.Error("failed to load services", "error", err)
	}
	data.Services = services

	posts, err := h.catalog.ListPosts(ctx, 1, homeLatestPosts, "")
	if err != nil {
		h.logger.Error("failed to load posts", "error", err)
	}
	data.Posts = posts.Posts

	lang := middleware.GetLang(r)
	renderPage(w, r, h.renderer, http.StatusOK, "home", render.TemplateData{
		Title:       i18n.T(lang, "home.hero"),
		Description: i18n.T(lang, "site.tagline"),
		Data:        data,
	})
}

// Services handles GET /services.
func (h *FrontendHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.Services(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "services", render.TemplateData{
		Title: i18n.T(middleware.GetLang(r), "services.title"),
		Data:  services,
	})
}

// Service handles GET /services/{slug}.
func (h *FrontendHandler) Service(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	svc, ok := requireEntity(w, r, h.renderer, "service", slug, func() (catalog.Service, error) {
		return h.catalog.GetService(r.Context(), slug)
	})
	if !ok {
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, "service", render.TemplateData{
		Title:       svc.Title,
		Description: svc.Summary,
		Data:        svc,
	})
}

// Language handles GET /language/{code}: stores the choice and returns to
// the page the visitor came from.
func (h *FrontendHandler) Language(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if i18n.IsSupported(code) {
		middleware.SetLanguageCookie(w, code)
	}
	http.Redirect(w, r, localRedirect(r.Referer(), "/"), http.StatusSeeOther)
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, h.renderer, http.StatusNotFound)
}

// localRedirect returns the path and query of target when it points back at
// this site, and fallback otherwise.
func localRedirect(target, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil {
		return fallback
	}
	p := u.EscapedPath()
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return fallback
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
