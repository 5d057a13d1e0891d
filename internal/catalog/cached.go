// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/concierge/internal/cache"
)

// CacheKeyPrefix namespaces every catalog entry in the shared cache.
const CacheKeyPrefix = "catalog:"

// CachedSource caches another Source. Lookup errors, including ErrNotFound,
// are never cached.
type CachedSource struct {
	next     Source
	store    cache.Cacher
	logger   *slog.Logger
	villas   *cache.TypedCache[[]Villa]
	villa    *cache.TypedCache[Villa]
	yachts   *cache.TypedCache[[]Yacht]
	yacht    *cache.TypedCache[Yacht]
	services *cache.TypedCache[[]Service]
	service  *cache.TypedCache[Service]
	posts    *cache.TypedCache[[]Post]
	post     *cache.TypedCache[Post]
}

// NewCachedSource wraps next with entries that live for ttl.
func NewCachedSource(next Source, c cache.Cacher, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		next:     next,
		store:    c,
		logger:   logger,
		villas:   cache.NewTypedCache[[]Villa](c, CacheKeyPrefix+"villas:", ttl),
		villa:    cache.NewTypedCache[Villa](c, CacheKeyPrefix+"villa:", ttl),
		yachts:   cache.NewTypedCache[[]Yacht](c, CacheKeyPrefix+"yachts:", ttl),
		yacht:    cache.NewTypedCache[Yacht](c, CacheKeyPrefix+"yacht:", ttl),
		services: cache.NewTypedCache[[]Service](c, CacheKeyPrefix+"services:", ttl),
		service:  cache.NewTypedCache[Service](c, CacheKeyPrefix+"service:", ttl),
		posts:    cache.NewTypedCache[[]Post](c, CacheKeyPrefix+"posts:", ttl),
		post:     cache.NewTypedCache[Post](c, CacheKeyPrefix+"post:", ttl),
	}
}

const listKey = "all"

// Villas implements Source.
func (s *CachedSource) Villas(ctx context.Context) ([]Villa, error) {
	return s.villas.GetOrSet(ctx, listKey, func() ([]Villa, error) { return s.next.Villas(ctx) })
}

// Villa implements Source.
func (s *CachedSource) Villa(ctx context.Context, slug string) (Villa, error) {
	return s.villa.GetOrSet(ctx, slug, func() (Villa, error) { return s.next.Villa(ctx, slug) })
}

// Yachts implements Source.
func (s *CachedSource) Yachts(ctx context.Context) ([]Yacht, error) {
	return s.yachts.GetOrSet(ctx, listKey, func() ([]Yacht, error) { return s.next.Yachts(ctx) })
}

// Yacht implements Source.
func (s *CachedSource) Yacht(ctx context.Context, slug string) (Yacht, error) {
	return s.yacht.GetOrSet(ctx, slug, func() (Yacht, error) { return s.next.Yacht(ctx, slug) })
}

// Services implements Source.
func (s *CachedSource) Services(ctx context.Context) ([]Service, error) {
	return s.services.GetOrSet(ctx, listKey, func() ([]Service, error) { return s.next.Services(ctx) })
}

// Service implements Source.
func (s *CachedSource) Service(ctx context.Context, slug string) (Service, error) {
	return s.service.GetOrSet(ctx, slug, func() (Service, error) { return s.next.Service(ctx, slug) })
}

// Posts implements Source.
func (s *CachedSource) Posts(ctx context.Context) ([]Post, error) {
	return s.posts.GetOrSet(ctx, listKey, func() ([]Post, error) { return s.next.Posts(ctx) })
}

// Post implements Source.
func (s *CachedSource) Post(ctx context.Context, slug string) (Post, error) {
	return s.post.GetOrSet(ctx, slug, func() (Post, error) { return s.next.Post(ctx, slug) })
}

// Invalidate drops every cached catalog entry.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	if err := s.store.DeleteByPrefix(ctx, CacheKeyPrefix); err != nil {
		return fmt.Errorf("invalidating catalog cache: %w", err)
	}
	return nil
}

// Warm drops the cache and reloads every list so visitors never wait on the
// upstream source. Individual listings are cached on first view.
func (s *CachedSource) Warm(ctx context.Context) error {
	if err := s.Invalidate(ctx); err != nil {
		return err
	}

	start := time.Now()
	var errs []error
	if _, err := s.Villas(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Yachts(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Services(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Posts(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("warming catalog cache: %w", errs[0])
	}

	s.logger.Debug("catalog cache warmed", "duration", time.Since(start))
	return nil
}
