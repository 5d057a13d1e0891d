// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/concierge/internal/pricing"
	"github.com/olegiv/concierge/internal/util"
	"github.com/olegiv/concierge/internal/vip"
)

// Sort orders for villa listings.
const (
	SortFeatured  = ""
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// Filter narrows a villa listing. Zero values match everything.
type Filter struct {
	Region      string  // region slug, e.g. "cote-d-azur"
	MinBedrooms int     // at least this many bedrooms
	Guests      int     // sleeps at least this many guests
	MaxPrice    float64 // weekly price ceiling; prices on request are excluded when set
	Query       string  // case-insensitive match on name, location and summary
	Sort        string
}

// ValidSort reports whether s is a known sort order.
func ValidSort(s string) bool {
	switch s {
	case SortFeatured, SortPriceAsc, SortPriceDesc, SortName:
		return true
	}
	return false
}

// GalleryLister returns uploaded image URLs for a villa.
type GalleryLister interface {
	URLs(ctx context.Context, villaSlug string) ([]string, error)
}

// Region is a villa region with its listing count.
type Region struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PostPage is one page of blog posts.
type PostPage struct {
	Posts      []Post
	Tag        string
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// HasPrev reports whether a newer page exists.
func (p PostPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether an older page exists.
func (p PostPage) HasNext() bool { return p.Page < p.TotalPages }

// Catalog applies visibility rules, filters and sorting on top of a Source.
type Catalog struct {
	source  Source
	gallery GalleryLister
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Catalog over source.
func New(source Source, logger *slog.Logger) *Catalog {
	return &Catalog{source: source, logger: logger, now: time.Now}
}

// SetGallery attaches uploaded villa images to villa pages.
func (c *Catalog) SetGallery(g GalleryLister) {
	c.gallery = g
}

// Source returns the underlying source.
func (c *Catalog) Source() Source {
	return c.source
}

func visible(v Villa, viewer *vip.Session) bool {
	return !v.Private || viewer.CanViewPrivate()
}

// ListVillas returns the villas viewer may see that match f.
func (c *Catalog) ListVillas(ctx context.Context, viewer *vip.Session, f Filter) ([]Villa, error) {
	all, err := c.source.Villas(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	region := util.Slugify(f.Region)

	out := make([]Villa, 0, len(all))
	for _, v := range all {
		if !visible(v, viewer) {
			continue
		}
		if region != "" && v.RegionSlug() != region {
			continue
		}
		if f.MinBedrooms > 0 && v.Bedrooms < f.MinBedrooms {
			continue
		}
		if f.Guests > 0 && v.Guests < f.Guests {
			continue
		}
		if f.MaxPrice > 0 {
			weekly, ok := v.Price().Weekly()
			if !ok || weekly > f.MaxPrice {
				continue
			}
		}
		if query != "" && !matchesQuery(v, query) {
			continue
		}
		out = append(out, v)
	}

	sortVillas(out, f.Sort)
	return out, nil
}

func matchesQuery(v Villa, q string) bool {
	return strings.Contains(strings.ToLower(v.Name), q) ||
		strings.Contains(strings.ToLower(v.Location), q) ||
		strings.Contains(strings.ToLower(v.Region), q) ||
		strings.Contains(strings.ToLower(v.Summary), q)
}

func sortVillas(villas []Villa, order string) {
	byName := func(a, b Villa) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}

	switch order {
	case SortPriceAsc:
		slices.SortStableFunc(villas, func(a, b Villa) int {
			if c := pricing.Compare(a.Price(), b.Price()); c != 0 {
				return c
			}
			return byName(a, b)
		})
	case SortPriceDesc:
		slices.SortStableFunc(villas, func(a, b Villa) int {
			pa, pb := a.Price(), b.Price()
			// on-request prices stay last in both directions
			if pa.OnRequest != pb.OnRequest {
				if pa.OnRequest {
					return 1
				}
				return -1
			}
			if c := pricing.Compare(pb, pa); c != 0 {
				return c
			}
			return byName(a, b)
		})
	case SortName:
		slices.SortStableFunc(villas, byName)
	default:
		slices.SortStableFunc(villas, func(a, b Villa) int {
			if a.Featured != b.Featured {
				if a.Featured {
					return -1
				}
				return 1
			}
			return byName(a, b)
		})
	}
}

// GetVilla returns a villa. Private villas are reported as ErrNotFound to
// viewers without access so their existence is not revealed.
func (c *Catalog) GetVilla(ctx context.Context, viewer *vip.Session, slug string) (Villa, error) {
	if !util.IsValidSlug(slug) {
		return Villa{}, ErrNotFound
	}
	v, err := c.source.Villa(ctx, slug)
	if err != nil {
		return Villa{}, err
	}
	if !visible(v, viewer) {
		return Villa{}, ErrNotFound
	}

	if c.gallery != nil {
		urls, err := c.gallery.URLs(ctx, slug)
		if err != nil {
			c.logger.Warn("failed to load villa gallery", "slug", slug, "error", err)
		}
		v.Images = append(slices.Clone(v.Images), urls...)
	}
	return v, nil
}

// PrivateVillas returns the members-only villas. Viewers without access get none.
func (c *Catalog) PrivateVillas(ctx context.Context, viewer *vip.Session) ([]Villa, error) {
	if !viewer.CanViewPrivate() {
		return nil, nil
	}
	all, err := c.ListVillas(ctx, viewer, Filter{Sort: SortName})
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, v := range all {
		if v.Private {
			out = append(out, v)
		}
	}
	return out, nil
}

// FeaturedVillas returns up to limit featured public villas.
func (c *Catalog) FeaturedVillas(ctx context.Context, limit int) ([]Villa, error) {
	all, err := c.ListVillas(ctx, nil, Filter{})
	if err != nil {
		return nil, err
	}
	var out []Villa
	for _, v := range all {
		if v.Featured {
			out = append(out, v)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Regions lists the regions of the villas viewer may see, sorted by name.
func (c *Catalog) Regions(ctx context.Context, viewer *vip.Session) ([]Region, error) {
	villas, err := c.ListVillas(ctx, viewer, Filter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]*Region)
	for _, v := range villas {
		if v.Region == "" {
			continue
		}
		slug := v.RegionSlug()
		if r, ok := counts[slug]; ok {
			r.Count++
			continue
		}
		counts[slug] = &Region{Slug: slug, Name: v.Region, Count: 1}
	}

	out := make([]Region, 0, len(counts))
	for _, r := range counts {
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b Region) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// Yachts returns all yachts sorted by name.
func (c *Catalog) Yachts(ctx context.Context) ([]Yacht, error) {
	yachts, err := c.source.Yachts(ctx)
	if err != nil {
		return nil, err
	}
	yachts = slices.Clone(yachts)
	slices.SortStableFunc(yachts, func(a, b Yacht) int { return cmp.Compare(a.Name, b.Name) })
	return yachts, nil
}

// GetYacht returns a yacht.
func (c *Catalog) GetYacht(ctx context.Context, slug string) (Yacht, error) {
	if !util.IsValidSlug(slug) {
		return Yacht{}, ErrNotFound
	}
	return c.source.Yacht(ctx, slug)
}

// Services returns services ordered by position.
func (c *Catalog) Services(ctx context.Context) ([]Service, error) {
	services, err := c.source.Services(ctx)
	if err != nil {
		return nil, err
	}
	services = slices.Clone(services)
	slices.SortStableFunc(services, func(a, b Service) int { return cmp.Compare(a.Position, b.Position) })
	return services, nil
}

// GetService returns a service.
func (c *Catalog) GetService(ctx context.Context, slug string) (Service, error) {
	if !util.IsValidSlug(slug) {
		return Service{}, ErrNotFound
	}
	return c.source.Service(ctx, slug)
}

// publishedPosts returns posts whose publication time has passed, newest first.
func (c *Catalog) publishedPosts(ctx context.Context) ([]Post, error) {
	posts, err := c.source.Posts(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if !p.PublishedAt.After(now) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b Post) int { return b.PublishedAt.Compare(a.PublishedAt) })
	return out, nil
}

// ListPosts returns page (1-based) of published posts, optionally limited to tag.
func (c *Catalog) ListPosts(ctx context.Context, page, perPage int, tag string) (PostPage, error) {
	if perPage <= 0 {
		perPage = 9
	}
	if page < 1 {
		page = 1
	}

	posts, err := c.publishedPosts(ctx)
	if err != nil {
		return PostPage{}, err
	}
	if tag != "" {
		filtered := posts[:0]
		for _, p := range posts {
			if p.HasTag(tag) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	result := PostPage{Tag: tag, Page: page, PerPage: perPage, Total: len(posts)}
	result.TotalPages = (len(posts) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start < len(posts) {
		end := min(start+perPage, len(posts))
		result.Posts = posts[start:end]
	}
	return result, nil
}

// GetPost returns a published post. Scheduled posts are ErrNotFound.
func (c *Catalog) GetPost(ctx context.Context, slug string) (Post, error) {
	if !util.IsValidSlug(slug) {
		return Post{}, ErrNotFound
	}
	p, err := c.source.Post(ctx, slug)
	if err != nil {
		return Post{}, err
	}
	if p.PublishedAt.After(c.now()) {
		return Post{}, ErrNotFound
	}
	return p, nil
}

// Tags lists the tags of published posts by descending use.
func (c *Catalog) Tags(ctx context.Context) ([]string, error) {
	posts, err := c.publishedPosts(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	names := make(map[string]string)
	for _, p := range posts {
		for _, t := range p.Tags {
			key := util.Slugify(t)
			if key == "" {
				continue
			}
			counts[key]++
			if _, ok := names[key]; !ok {
				names[key] = t
			}
		}
	}
	out := make([]string, 0, len(names))
	for key := range names {
		out = append(out, key)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	for i, key := range out {
		out[i] = names[key]
	}
	return out, nil
}
