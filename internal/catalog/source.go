// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a listing does not exist or is hidden from the viewer.
var ErrNotFound = errors.New("catalog: not found")

// Source provides catalog content. Villas includes private listings;
// visibility is enforced by Catalog.
type Source interface {
	Villas(ctx context.Context) ([]Villa, error)
	Villa(ctx context.Context, slug string) (Villa, error)
	Yachts(ctx context.Context) ([]Yacht, error)
	Yacht(ctx context.Context, slug string) (Yacht, error)
	Services(ctx context.Context) ([]Service, error)
	Service(ctx context.Context, slug string) (Service, error)
	Posts(ctx context.Context) ([]Post, error)
	Post(ctx context.Context, slug string) (Post, error)
}
