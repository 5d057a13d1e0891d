// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/markdown"
	"github.com/olegiv/concierge/internal/middleware"
	"github.com/olegiv/concierge/internal/render"
	"github.com/olegiv/concierge/internal/util"
)

// BlogData holds the data for the blog index.
type BlogData struct {
	Page       catalog.PostPage
	Tags       []string
	Pagination Pagination
}

// Blog handles GET /blog. ?tag= filters by tag and ?page= selects the page.
func (h *FrontendHandler) Blog(w http.ResponseWriter, r *http.Request) {
	tag := util.Slugify(strings.TrimSpace(r.URL.Query().Get("tag")))
	page := pageParam(r)

	posts, err := h.catalog.ListPosts(r.Context(), page, blogPerPage, tag)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		renderError(w, r, h.renderer, http.StatusInternalServerError)
		return
	}
	if page > 1 && page > posts.TotalPages {
		renderError(w, r, h.renderer, http.StatusNotFound)
		return
	}

	tags, err := h.catalog.Tags(r.Context())
	if err != nil {
		h.logger.Warn("failed to list tags", "error", err)
	}

	var query url.Values
	if tag != "" {
		query = url.Values{"tag": {tag}}
	}

	lang := middleware.GetLang(r)
	title := i18n.T(lang, "blog.title")
	if tag != "" {
		title = i18n.T(lang, "blog.tagged", tag)
	}

	renderPage(w, r, h.renderer, http.StatusOK, "blog", render.TemplateData{
		Title: title,
		Data: BlogData{
			Page:       posts,
			Tags:       tags,
			Pagination: BuildPagination(posts.Page, posts.Total, posts.PerPage, "/blog", query),
		},
	})
}

// Post handles GET /blog/{slug}.
func (h *FrontendHandler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, ok := requireEntity(w, r, h.renderer, "post", slug, func() (catalog.Post, error) {
		return h.catalog.GetPost(r.Context(), slug)
	})
	if !ok {
		return
	}

	h.recorder.RecordRequest(r, audit.TypePostView, middleware.GetUserID(r), map[string]any{
		"slug": post.Slug,
	})

	description := post.Excerpt
	if description == "" {
		description = markdown.Excerpt(post.Body, 160)
	}
	data := render.TemplateData{
		Title:       post.Title,
		Description: description,
		Data:        post,
	}
	if post.CoverImage != "" {
		data.OGImage = h.siteURL + post.CoverImage
	}
	renderPage(w, r, h.renderer, http.StatusOK, "post", data)
}
