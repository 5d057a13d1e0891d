// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/concierge/internal/store"
)

// LocalSource reads the catalog tables of the site database.
type LocalSource struct {
	queries *store.Queries
	now     func() time.Time
}

// NewLocalSource creates a LocalSource over db.
func NewLocalSource(db *sql.DB) *LocalSource {
	return &LocalSource{queries: store.New(db), now: time.Now}
}

func notFound(err error, what, slug string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("loading %s %q: %w", what, slug, err)
}

func decodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func villaFromStore(v store.Villa) Villa {
	return Villa{
		Slug:        v.Slug,
		Name:        v.Name,
		Location:    v.Location,
		Region:      v.Region,
		Summary:     v.Summary,
		Description: v.Description,
		PriceText:   v.PriceText,
		Bedrooms:    int(v.Bedrooms),
		Bathrooms:   int(v.Bathrooms),
		Guests:      int(v.Guests),
		Images:      decodeList(v.Images),
		Amenities:   decodeList(v.Amenities),
		Private:     v.Private,
		Featured:    v.Featured,
		UpdatedAt:   v.UpdatedAt,
	}
}

func yachtFromStore(y store.Yacht) Yacht {
	return Yacht{
		Slug:        y.Slug,
		Name:        y.Name,
		Length:      y.Length,
		Guests:      int(y.Guests),
		Cabins:      int(y.Cabins),
		Crew:        int(y.Crew),
		PriceText:   y.PriceText,
		Summary:     y.Summary,
		Description: y.Description,
		Images:      decodeList(y.Images),
		UpdatedAt:   y.UpdatedAt,
	}
}

func serviceFromStore(s store.Service) Service {
	return Service{
		Slug:     s.Slug,
		Title:    s.Title,
		Summary:  s.Summary,
		Body:     s.Body,
		Icon:     s.Icon,
		Position: int(s.Position),
	}
}

func postFromStore(p store.Post) Post {
	return Post{
		Slug:        p.Slug,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Body:        p.Body,
		Author:      p.Author,
		CoverImage:  p.CoverImage,
		Tags:        decodeList(p.Tags),
		PublishedAt: p.PublishedAt,
	}
}

// Villas returns all villas.
func (s *LocalSource) Villas(ctx context.Context) ([]Villa, error) {
	rows, err := s.queries.ListVillas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing villas: %w", err)
	}
	out := make([]Villa, 0, len(rows))
	for _, r := range rows {
		out = append(out, villaFromStore(r))
	}
	return out, nil
}

// Villa returns one villa.
func (s *LocalSource) Villa(ctx context.Context, slug string) (Villa, error) {
	r, err := s.queries.GetVillaBySlug(ctx, slug)
	if err != nil {
		return Villa{}, notFound(err, "villa", slug)
	}
	return villaFromStore(r), nil
}

// Yachts returns all yachts.
func (s *LocalSource) Yachts(ctx context.Context) ([]Yacht, error) {
	rows, err := s.queries.ListYachts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing yachts: %w", err)
	}
	out := make([]Yacht, 0, len(rows))
	for _, r := range rows {
		out = append(out, yachtFromStore(r))
	}
	return out, nil
}

// Yacht returns one yacht.
func (s *LocalSource) Yacht(ctx context.Context, slug string) (Yacht, error) {
	r, err := s.queries.GetYachtBySlug(ctx, slug)
	if err != nil {
		return Yacht{}, notFound(err, "yacht", slug)
	}
	return yachtFromStore(r), nil
}

// Services returns all services ordered by position.
func (s *LocalSource) Services(ctx context.Context) ([]Service, error) {
	rows, err := s.queries.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	out := make([]Service, 0, len(rows))
	for _, r := range rows {
		out = append(out, serviceFromStore(r))
	}
	return out, nil
}

// Service returns one service.
func (s *LocalSource) Service(ctx context.Context, slug string) (Service, error) {
	r, err := s.queries.GetServiceBySlug(ctx, slug)
	if err != nil {
		return Service{}, notFound(err, "service", slug)
	}
	return serviceFromStore(r), nil
}

// Posts returns published posts, newest first.
func (s *LocalSource) Posts(ctx context.Context) ([]Post, error) {
	rows, err := s.queries.ListPublishedPosts(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	out := make([]Post, 0, len(rows))
	for _, r := range rows {
		out = append(out, postFromStore(r))
	}
	return out, nil
}

// Post returns one post, including scheduled ones; Catalog hides those.
func (s *LocalSource) Post(ctx context.Context, slug string) (Post, error) {
	r, err := s.queries.GetPostBySlug(ctx, slug)
	if err != nil {
		return Post{}, notFound(err, "post", slug)
	}
	return postFromStore(r), nil
}
