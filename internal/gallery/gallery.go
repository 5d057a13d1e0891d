// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gallery stores admin-uploaded villa photos and serves their URLs.
package gallery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/util"
)

// MaxUploadSize is the largest accepted upload.
const MaxUploadSize = 10 << 20

// URLPrefix is where the uploads directory is served.
const URLPrefix = "/uploads/gallery"

const maxAltLength = 250

// Gallery errors.
var (
	ErrNotFound        = errors.New("gallery: image not found")
	ErrTooLarge        = errors.New("gallery: file exceeds 10 MB")
	ErrUnsupportedType = errors.New("gallery: only JPEG, PNG and WebP images are accepted")
	ErrInvalidVilla    = errors.New("gallery: invalid villa slug")
)

// Image is a stored gallery image.
type Image struct {
	ID           int64     `json:"id"`
	VillaSlug    string    `json:"villa_slug"`
	URL          string    `json:"url"`
	ThumbURL     string    `json:"thumb_url"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Width        int64     `json:"width"`
	Height       int64     `json:"height"`
	Size         int64     `json:"size"`
	Alt          string    `json:"alt"`
	Position     int64     `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
}

// Upload is an image submitted by an admin.
type Upload struct {
	VillaSlug    string
	OriginalName string
	Alt          string
	UploadedBy   int64
	Body         io.Reader
}

// Service manages villa galleries.
type Service struct {
	queries   *store.Queries
	uploadDir string
	logger    *slog.Logger
}

// NewService creates a gallery service writing under uploadsDir/gallery.
func NewService(q *store.Queries, uploadsDir string, logger *slog.Logger) *Service {
	dir, err := util.SafeJoinPath(uploadsDir, "gallery")
	if err != nil {
		dir = uploadsDir
	}
	return &Service{queries: q, uploadDir: dir, logger: logger}
}

// Upload decodes, resizes and stores an image for a villa.
func (s *Service) Upload(ctx context.Context, up Upload) (Image, error) {
	if !util.IsValidSlug(up.VillaSlug) {
		return Image{}, ErrInvalidVilla
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, MaxUploadSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return Image{}, ErrTooLarge
	}

	src, err := decode(data)
	if err != nil {
		return Image{}, err
	}

	out := outputFor(src.format)
	filename := uuid.New().String() + out.ext

	var width, height, size int64
	for _, v := range Variants {
		img := render(src.img, v)
		n, err := writeVariant(s.uploadDir, v, filename, out, img)
		if err != nil {
			_ = removeVariants(s.uploadDir, filename)
			return Image{}, err
		}
		if v.Name == VariantLarge {
			width, height, size = int64(img.Bounds().Dx()), int64(img.Bounds().Dy()), n
		}
	}

	originalName, err := util.CleanFilename(up.OriginalName)
	if err != nil {
		originalName = filename
	}

	row, err := s.queries.CreateVillaImage(ctx, store.CreateVillaImageParams{
		VillaSlug:    up.VillaSlug,
		Filename:     filename,
		OriginalName: originalName,
		MimeType:     out.mime,
		Width:        width,
		Height:       height,
		Size:         size,
		Alt:          truncate(strings.TrimSpace(up.Alt), maxAltLength),
		UploadedBy:   util.NullInt64(up.UploadedBy),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		_ = removeVariants(s.uploadDir, filename)
		return Image{}, fmt.Errorf("storing gallery image: %w", err)
	}

	s.logger.Info("gallery image uploaded",
		"villa", up.VillaSlug,
		"image_id", row.ID,
		"width", width,
		"height", height)
	return toImage(row), nil
}

// List returns a villa's gallery in display order.
func (s *Service) List(ctx context.Context, villaSlug string) ([]Image, error) {
	rows, err := s.queries.ListVillaImages(ctx, villaSlug)
	if err != nil {
		return nil, fmt.Errorf("listing gallery: %w", err)
	}
	images := make([]Image, len(rows))
	for i, row := range rows {
		images[i] = toImage(row)
	}
	return images, nil
}

// URLs returns the large-variant URLs of a villa's gallery.
func (s *Service) URLs(ctx context.Context, villaSlug string) ([]string, error) {
	images, err := s.List(ctx, villaSlug)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	return urls, nil
}

// Get returns an image by id.
func (s *Service) Get(ctx context.Context, id int64) (Image, error) {
	row, err := s.queries.GetVillaImage(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("getting gallery image: %w", err)
	}
	return toImage(row), nil
}

// Delete removes an image's files and row.
func (s *Service) Delete(ctx context.Context, id int64) (Image, error) {
	img, err := s.queries.GetVillaImage(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("getting gallery image: %w", err)
	}

	if err := removeVariants(s.uploadDir, img.Filename); err != nil {
		s.logger.Warn("failed to delete gallery files", "image_id", id, "error", err)
	}
	if err := s.queries.DeleteVillaImage(ctx, id); err != nil {
		return Image{}, fmt.Errorf("deleting gallery image: %w", err)
	}

	s.logger.Info("gallery image deleted", "villa", img.VillaSlug, "image_id", id)
	return toImage(img), nil
}

func toImage(row store.VillaImage) Image {
	return Image{
		ID:           row.ID,
		VillaSlug:    row.VillaSlug,
		URL:          URLPrefix + "/" + VariantLarge + "/" + row.Filename,
		ThumbURL:     URLPrefix + "/" + VariantThumb + "/" + row.Filename,
		OriginalName: row.OriginalName,
		MimeType:     row.MimeType,
		Width:        row.Width,
		Height:       row.Height,
		Size:         row.Size,
		Alt:          row.Alt,
		Position:     row.Position,
		CreatedAt:    row.CreatedAt,
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
