// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const villaColumns = `id, slug, name, location, region, summary, description, price_text,
	bedrooms, bathrooms, guests, images, amenities, private, featured, updated_at`

func scanVilla(row scanner) (Villa, error) {
	var v Villa
	err := row.Scan(&v.ID, &v.Slug, &v.Name, &v.Location, &v.Region, &v.Summary, &v.Description,
		&v.PriceText, &v.Bedrooms, &v.Bathrooms, &v.Guests, &v.Images, &v.Amenities,
		&v.Private, &v.Featured, &v.UpdatedAt)
	return v, err
}

// ListVillas returns every villa, private ones included, ordered by name.
func (q *Queries) ListVillas(ctx context.Context) ([]Villa, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+villaColumns+` FROM villas ORDER BY featured DESC, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Villa
	for rows.Next() {
		v, err := scanVilla(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// GetVillaBySlug returns a villa by slug.
func (q *Queries) GetVillaBySlug(ctx context.Context, slug string) (Villa, error) {
	return scanVilla(q.db.QueryRowContext(ctx, `SELECT `+villaColumns+` FROM villas WHERE slug = ?`, slug))
}

// CountVillas returns the number of villas.
func (q *Queries) CountVillas(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM villas`).Scan(&n)
	return n, err
}

// UpsertVillaParams holds the columns for UpsertVilla.
type UpsertVillaParams struct {
	Slug        string
	Name        string
	Location    string
	Region      string
	Summary     string
	Description string
	PriceText   string
	Bedrooms    int64
	Bathrooms   int64
	Guests      int64
	Images      string
	Amenities   string
	Private     bool
	Featured    bool
	UpdatedAt   time.Time
}

// UpsertVilla inserts a villa or replaces the one with the same slug.
func (q *Queries) UpsertVilla(ctx context.Context, arg UpsertVillaParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO villas (slug, name, location, region, summary, description, price_text,
			bedrooms, bathrooms, guests, images, amenities, private, featured, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name, location = excluded.location, region = excluded.region,
			summary = excluded.summary, description = excluded.description,
			price_text = excluded.price_text, bedrooms = excluded.bedrooms,
			bathrooms = excluded.bathrooms, guests = excluded.guests, images = excluded.images,
			amenities = excluded.amenities, private = excluded.private,
			featured = excluded.featured, updated_at = excluded.updated_at`,
		arg.Slug, arg.Name, arg.Location, arg.Region, arg.Summary, arg.Description, arg.PriceText,
		arg.Bedrooms, arg.Bathrooms, arg.Guests, arg.Images, arg.Amenities, arg.Private,
		arg.Featured, arg.UpdatedAt)
	return err
}

const yachtColumns = `id, slug, name, length, guests, cabins, crew, price_text, summary,
	description, images, updated_at`

func scanYacht(row scanner) (Yacht, error) {
	var y Yacht
	err := row.Scan(&y.ID, &y.Slug, &y.Name, &y.Length, &y.Guests, &y.Cabins, &y.Crew,
		&y.PriceText, &y.Summary, &y.Description, &y.Images, &y.UpdatedAt)
	return y, err
}

// ListYachts returns all yachts ordered by name.
func (q *Queries) ListYachts(ctx context.Context) ([]Yacht, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+yachtColumns+` FROM yachts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Yacht
	for rows.Next() {
		y, err := scanYacht(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, y)
	}
	return items, rows.Err()
}

// GetYachtBySlug returns a yacht by slug.
func (q *Queries) GetYachtBySlug(ctx context.Context, slug string) (Yacht, error) {
	return scanYacht(q.db.QueryRowContext(ctx, `SELECT `+yachtColumns+` FROM yachts WHERE slug = ?`, slug))
}

// UpsertYachtParams holds the columns for UpsertYacht.
type UpsertYachtParams struct {
	Slug        string
	Name        string
	Length      string
	Guests      int64
	Cabins      int64
	Crew        int64
	PriceText   string
	Summary     string
	Description string
	Images      string
	UpdatedAt   time.Time
}

// UpsertYacht inserts a yacht or replaces the one with the same slug.
func (q *Queries) UpsertYacht(ctx context.Context, arg UpsertYachtParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO yachts (slug, name, length, guests, cabins, crew, price_text, summary,
			description, images, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name, length = excluded.length, guests = excluded.guests,
			cabins = excluded.cabins, crew = excluded.crew, price_text = excluded.price_text,
			summary = excluded.summary, description = excluded.description,
			images = excluded.images, updated_at = excluded.updated_at`,
		arg.Slug, arg.Name, arg.Length, arg.Guests, arg.Cabins, arg.Crew, arg.PriceText,
		arg.Summary, arg.Description, arg.Images, arg.UpdatedAt)
	return err
}

const serviceColumns = `id, slug, title, summary, body, icon, position`

func scanService(row scanner) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Slug, &s.Title, &s.Summary, &s.Body, &s.Icon, &s.Position)
	return s, err
}

// ListServices returns services in display order.
func (q *Queries) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY position, title`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// GetServiceBySlug returns a service by slug.
func (q *Queries) GetServiceBySlug(ctx context.Context, slug string) (Service, error) {
	return scanService(q.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE slug = ?`, slug))
}

// UpsertServiceParams holds the columns for UpsertService.
type UpsertServiceParams struct {
	Slug     string
	Title    string
	Summary  string
	Body     string
	Icon     string
	Position int64
}

// UpsertService inserts a service or replaces the one with the same slug.
func (q *Queries) UpsertService(ctx context.Context, arg UpsertServiceParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO services (slug, title, summary, body, icon, position)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title, summary = excluded.summary, body = excluded.body,
			icon = excluded.icon, position = excluded.position`,
		arg.Slug, arg.Title, arg.Summary, arg.Body, arg.Icon, arg.Position)
	return err
}

const postColumns = `id, slug, title, excerpt, body, author, cover_image, tags, published_at`

func scanPost(row scanner) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Body, &p.Author, &p.CoverImage,
		&p.Tags, &p.PublishedAt)
	return p, err
}

// ListPublishedPosts returns posts published at or before now, newest first.
func (q *Queries) ListPublishedPosts(ctx context.Context, now time.Time) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE published_at <= ? ORDER BY published_at DESC, id DESC`, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// GetPostBySlug returns a post by slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
}

// UpsertPostParams holds the columns for UpsertPost.
type UpsertPostParams struct {
	Slug        string
	Title       string
	Excerpt     string
	Body        string
	Author      string
	CoverImage  string
	Tags        string
	PublishedAt time.Time
}

// UpsertPost inserts a post or replaces the one with the same slug.
func (q *Queries) UpsertPost(ctx context.Context, arg UpsertPostParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO posts (slug, title, excerpt, body, author, cover_image, tags, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title, excerpt = excluded.excerpt, body = excluded.body,
			author = excluded.author, cover_image = excluded.cover_image,
			tags = excluded.tags, published_at = excluded.published_at`,
		arg.Slug, arg.Title, arg.Excerpt, arg.Body, arg.Author, arg.CoverImage, arg.Tags, arg.PublishedAt)
	return err
}
