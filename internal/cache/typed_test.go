// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type listing struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[[]listing](mc, "villas:", time.Minute)
	ctx := context.Background()

	calls := 0
	load := func() ([]listing, error) {
		calls++
		return []listing{{Slug: "casa", Name: "Casa"}}, nil
	}

	for range 3 {
		got, err := tc.GetOrSet(ctx, "all", load)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}
		if len(got) != 1 || got[0].Slug != "casa" {
			t.Fatalf("GetOrSet = %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}

	// Keys are namespaced by the prefix.
	if _, err := mc.Get(ctx, "villas:all"); err != nil {
		t.Errorf("underlying key villas:all missing: %v", err)
	}
}

func TestTypedCache_ErrorNotCached(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[listing](mc, "villa:", time.Minute)
	ctx := context.Background()

	boom := errors.New("backend down")
	if _, err := tc.GetOrSet(ctx, "casa", func() (listing, error) { return listing{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if _, ok := tc.Get(ctx, "casa"); ok {
		t.Error("failed load must not be cached")
	}
}

func TestTypedCache_Invalidate(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	villas := NewTypedCache[listing](mc, "villa:", time.Minute)
	posts := NewTypedCache[listing](mc, "post:", time.Minute)
	ctx := context.Background()

	_ = villas.Set(ctx, "a", listing{Slug: "a"})
	_ = posts.Set(ctx, "a", listing{Slug: "a"})

	if err := villas.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := villas.Get(ctx, "a"); ok {
		t.Error("villa cache should be empty after Invalidate")
	}
	if _, ok := posts.Get(ctx, "a"); !ok {
		t.Error("post cache should be untouched")
	}
}

func TestTypedCache_ConcurrentMissesShareLoad(t *testing.T) {
	mc := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mc.Close() }()
	tc := NewTypedCache[listing](mc, "villa:", time.Minute)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (listing, error) {
		calls.Add(1)
		<-release
		return listing{Slug: "casa"}, nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			if got, err := tc.GetOrSet(ctx, "casa", load); err != nil || got.Slug != "casa" {
				t.Errorf("GetOrSet = %+v, %v", got, err)
			}
		})
	}
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
}
