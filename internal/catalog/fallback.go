// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
	"log/slog"
)

// FallbackSource reads from primary and falls back to secondary when primary
// fails. ErrNotFound from primary is authoritative and returned as is.
type FallbackSource struct {
	primary   Source
	secondary Source
	logger    *slog.Logger
}

// NewFallbackSource creates a FallbackSource.
func NewFallbackSource(primary, secondary Source, logger *slog.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary, logger: logger}
}

func fallback[T any](s *FallbackSource, ctx context.Context, what string, primary, secondary func(context.Context) (T, error)) (T, error) {
	v, err := primary(ctx)
	if err == nil || errors.Is(err, ErrNotFound) {
		return v, err
	}
	if ctx.Err() != nil {
		return v, err
	}
	s.logger.Warn("catalog backend unavailable, serving local copy", "what", what, "error", err)
	return secondary(ctx)
}

// Villas implements Source.
func (s *FallbackSource) Villas(ctx context.Context) ([]Villa, error) {
	return fallback(s, ctx, "villas", s.primary.Villas, s.secondary.Villas)
}

// Villa implements Source.
func (s *FallbackSource) Villa(ctx context.Context, slug string) (Villa, error) {
	return fallback(s, ctx, "villa",
		func(ctx context.Context) (Villa, error) { return s.primary.Villa(ctx, slug) },
		func(ctx context.Context) (Villa, error) { return s.secondary.Villa(ctx, slug) })
}

// Yachts implements Source.
func (s *FallbackSource) Yachts(ctx context.Context) ([]Yacht, error) {
	return fallback(s, ctx, "yachts", s.primary.Yachts, s.secondary.Yachts)
}

// Yacht implements Source.
func (s *FallbackSource) Yacht(ctx context.Context, slug string) (Yacht, error) {
	return fallback(s, ctx, "yacht",
		func(ctx context.Context) (Yacht, error) { return s.primary.Yacht(ctx, slug) },
		func(ctx context.Context) (Yacht, error) { return s.secondary.Yacht(ctx, slug) })
}

// Services implements Source.
func (s *FallbackSource) Services(ctx context.Context) ([]Service, error) {
	return fallback(s, ctx, "services", s.primary.Services, s.secondary.Services)
}

// Service implements Source.
func (s *FallbackSource) Service(ctx context.Context, slug string) (Service, error) {
	return fallback(s, ctx, "service",
		func(ctx context.Context) (Service, error) { return s.primary.Service(ctx, slug) },
		func(ctx context.Context) (Service, error) { return s.secondary.Service(ctx, slug) })
}

// Posts implements Source.
func (s *FallbackSource) Posts(ctx context.Context) ([]Post, error) {
	return fallback(s, ctx, "posts", s.primary.Posts, s.secondary.Posts)
}

// Post implements Source.
func (s *FallbackSource) Post(ctx context.Context, slug string) (Post, error) {
	return fallback(s, ctx, "post",
		func(ctx context.Context) (Post, error) { return s.primary.Post(ctx, slug) },
		func(ctx context.Context) (Post, error) { return s.secondary.Post(ctx, slug) })
}
