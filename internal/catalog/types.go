// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog serves the villas, yachts, services and blog posts shown on
// the site. Listings come from a Source: the local database, the remote
// backend, or a cached and fail-safe combination of both.
package catalog

import (
	"time"

	"github.com/olegiv/concierge/internal/pricing"
	"github.com/olegiv/concierge/internal/util"
)

// Villa is a rental villa. Private villas are only shown to VIP members.
type Villa struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Region      string    `json:"region"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	PriceText   string    `json:"price"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Guests      int       `json:"guests"`
	Images      []string  `json:"images"`
	Amenities   []string  `json:"amenities"`
	Private     bool      `json:"private"`
	Featured    bool      `json:"featured"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Price parses PriceText. Unparseable prices are treated as on request.
func (v Villa) Price() pricing.Price {
	return parsePrice(v.PriceText)
}

// RegionSlug is the URL form of Region used by filters.
func (v Villa) RegionSlug() string {
	return util.Slugify(v.Region)
}

// Yacht is a crewed charter yacht.
type Yacht struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Length      string    `json:"length"`
	Guests      int       `json:"guests"`
	Cabins      int       `json:"cabins"`
	Crew        int       `json:"crew"`
	PriceText   string    `json:"price"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Price parses PriceText. Unparseable prices are treated as on request.
func (y Yacht) Price() pricing.Price {
	return parsePrice(y.PriceText)
}

// Service is a concierge service page.
type Service struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
	Icon     string `json:"icon"`
	Position int    `json:"position"`
}

// Post is a blog article. Body is Markdown.
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	CoverImage  string    `json:"cover_image"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"published_at"`
}

// HasTag reports whether the post carries tag, ignoring case.
func (p Post) HasTag(tag string) bool {
	want := util.Slugify(tag)
	for _, t := range p.Tags {
		if util.Slugify(t) == want {
			return true
		}
	}
	return false
}

func parsePrice(s string) pricing.Price {
	p, err := pricing.Parse(s)
	if err != nil {
		return pricing.Price{OnRequest: true, Raw: s}
	}
	return p
}
