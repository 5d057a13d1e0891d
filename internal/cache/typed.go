// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores values of one type as JSON under a key prefix.
// Concurrent GetOrSet misses for the same key share a single load.
type TypedCache[T any] struct {
	backend Cacher
	prefix  string
	ttl     time.Duration
	loads   singleflight.Group
}

func NewTypedCache[T any](backend Cacher, prefix string, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, prefix: prefix, ttl: ttl}
}

// Get reports ok=false on a miss and on an undecodable entry.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	raw, err := c.backend.Get(ctx, c.prefix+key)
	if err != nil || json.Unmarshal(raw, &v) != nil {
		return v, false
	}
	return v, true
}

func (c *TypedCache[T]) Set(ctx context.Context, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, c.prefix+key, raw, c.ttl)
}

func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.prefix+key)
}

// Invalidate drops every key under this cache's prefix.
func (c *TypedCache[T]) Invalidate(ctx context.Context) error {
	return c.backend.DeleteByPrefix(ctx, c.prefix)
}

// GetOrSet returns the cached value or loads, stores and returns a fresh
// one. A load error is returned and nothing is stored. A store error is
// ignored.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	res, err, _ := c.loads.Do(key, func() (any, error) {
		v, err := load()
		if err == nil {
			_ = c.Set(ctx, key, v)
		}
		return v, err
	})
	return res.(T), err
}
