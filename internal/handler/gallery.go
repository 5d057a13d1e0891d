// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/gallery"
	"github.com/olegiv/concierge/internal/middleware"
)

// multipartOverhead is allowed on top of the file size for form fields.
const multipartOverhead = 1 << 20

// GalleryHandler manages villa image uploads.
type GalleryHandler struct {
	gallery  *gallery.Service
	catalog  *catalog.Catalog
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(svc *gallery.Service, cat *catalog.Catalog, rec *audit.Recorder, logger *slog.Logger) *GalleryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GalleryHandler{gallery: svc, catalog: cat, recorder: rec, logger: logger}
}

// Upload handles POST /api/admin/villas/{slug}/images (multipart field "file",
// optional "alt").
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, ok := requireEntityWithJSONError(w, "Villa", slug, func() (catalog.Villa, error) {
		return h.catalog.GetVilla(r.Context(), middleware.GetSession(r), slug)
	}); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, gallery.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(gallery.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, gallery.ErrTooLarge.Error())
			return
		}
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	userID := middleware.GetUserID(r)
	img, err := h.gallery.Upload(r.Context(), gallery.Upload{
		VillaSlug:    slug,
		OriginalName: header.Filename,
		Alt:          r.FormValue("alt"),
		UploadedBy:   userID,
		Body:         file,
	})
	switch {
	case errors.Is(err, gallery.ErrTooLarge):
		writeJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, gallery.ErrUnsupportedType):
		writeJSONError(w, http.StatusUnsupportedMediaType, gallery.ErrUnsupportedType.Error())
		return
	case errors.Is(err, gallery.ErrInvalidVilla):
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logAndJSONError(w, "failed to upload gallery image", "error", err, "villa", slug)
		return
	}

	h.recorder.RecordRequest(r, audit.TypeGalleryUpload, userID, map[string]any{
		"villa":    slug,
		"image_id": img.ID,
		"size":     img.Size,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"image":   img,
	})
}

// List handles GET /api/admin/villas/{slug}/images.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	images, err := h.gallery.List(r.Context(), slug)
	if err != nil {
		logAndJSONError(w, "failed to list gallery", "error", err, "villa", slug)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"images": images,
		"total":  len(images),
	})
}

// Delete handles DELETE /api/admin/images/{id}.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid image ID")
		return
	}
	img, ok := requireEntityWithJSONError(w, "Image", id, func() (gallery.Image, error) {
		return h.gallery.Delete(r.Context(), id)
	})
	if !ok {
		return
	}
	writeJSONSuccess(w, map[string]any{"image": img})
}
