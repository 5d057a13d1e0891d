// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/testutil"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type fakeForwarder struct {
	mu      sync.Mutex
	batches [][]audit.Event
	err     error
}

func (f *fakeForwarder) PostEvents(_ context.Context, events []audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]audit.Event, len(events))
	copy(cp, events)
	f.batches = append(f.batches, cp)
	return f.err
}

func (f *fakeForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type fixedCountry string

func (c fixedCountry) Country(string) string { return string(c) }

func listAll(t *testing.T, q *store.Queries) []store.AuditEvent {
	t.Helper()
	events, err := q.ListAuditEvents(context.Background(), store.ListAuditEventsParams{Limit: 100})
	require.NoError(t, err)
	return events
}

func TestRecorder_FlushWritesEvents(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	rec := audit.NewRecorder(db, testutil.TestLoggerSilent(), audit.Config{BatchSize: 2})
	fwd := &fakeForwarder{}
	rec.SetForwarder(fwd)

	for i := 0; i < 5; i++ {
		require.True(t, rec.Record(audit.Event{
			Type:      audit.TypeVillaView,
			SessionID: "sid-1",
			UserID:    int64(i % 2),
			Metadata:  map[string]any{"slug": "casa-del-faro"},
		}))
	}
	rec.Flush(context.Background())

	events := listAll(t, q)
	require.Len(t, events, 5)
	assert.Equal(t, int64(5), rec.Written())
	assert.Equal(t, 5, fwd.count())

	e := audit.FromStore(events[0])
	assert.Equal(t, audit.TypeVillaView, e.Type)
	assert.Equal(t, "casa-del-faro", e.Metadata["slug"])
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecorder_ForwarderErrorKeepsLocalCopy(t *testing.T) {
	db := testutil.TestDB(t)
	rec := audit.NewRecorder(db, testutil.TestLoggerSilent(), audit.DefaultConfig())
	rec.SetForwarder(&fakeForwarder{err: errors.New("backend down")})

	rec.Record(audit.Event{Type: audit.TypeLogin, SessionID: "s"})
	rec.Flush(context.Background())

	assert.Len(t, listAll(t, store.New(db)), 1)
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	db := testutil.TestDB(t)
	rec := audit.NewRecorder(db, testutil.TestLoggerSilent(), audit.Config{QueueSize: 2})

	assert.True(t, rec.Record(audit.Event{Type: audit.TypePageView}))
	assert.True(t, rec.Record(audit.Event{Type: audit.TypePageView}))
	assert.False(t, rec.Record(audit.Event{Type: audit.TypePageView}))
	assert.Equal(t, int64(1), rec.Dropped())
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var rec *audit.Recorder
	assert.False(t, rec.Record(audit.Event{Type: audit.TypePageView}))
	rec.RecordRequest(httptest.NewRequest(http.MethodGet, "/", nil), audit.TypePageView, 0, nil)
}

func TestRecorder_StartStopDrains(t *testing.T) {
	db := testutil.TestDB(t)
	rec := audit.NewRecorder(db, testutil.TestLoggerSilent(), audit.Config{
		BatchSize:     100,
		FlushInterval: time.Hour,
	})
	rec.Start(context.Background())
	rec.Start(context.Background()) // idempotent

	for i := 0; i < 10; i++ {
		rec.Record(audit.Event{Type: audit.TypePageView, SessionID: "sid"})
	}
	rec.Stop()
	rec.Stop() // idempotent

	assert.Len(t, listAll(t, store.New(db)), 10)
}

func TestRecorder_FromRequest(t *testing.T) {
	db := testutil.TestDB(t)
	rec := audit.NewRecorder(db, testutil.TestLoggerSilent(), audit.DefaultConfig())
	rec.SetCountryResolver(fixedCountry("FR"))

	req := httptest.NewRequest(http.MethodGet, "/villas/casa-del-faro", nil)
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Referer", "https://www.google.com/search?q=villa")
	req = req.WithContext(audit.WithSessionID(req.Context(), "sid-42"))

	e := rec.FromRequest(req, audit.TypeVillaView, 7, map[string]any{"slug": "casa-del-faro"})

	assert.Equal(t, "sid-42", e.SessionID)
	assert.Equal(t, int64(7), e.UserID)
	assert.Equal(t, "/villas/casa-del-faro", e.Path)
	assert.Equal(t, "www.google.com", e.Referrer)
	assert.Equal(t, "Chrome", e.Browser)
	assert.Equal(t, audit.DeviceDesktop, e.Device)
	assert.Equal(t, "FR", e.Country)
}

func TestPurge(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	for _, age := range []int{1, 10, 100, 200} {
		require.NoError(t, q.InsertAuditEvent(ctx, store.InsertAuditEventParams{
			Type:      audit.TypePageView,
			Metadata:  "{}",
			CreatedAt: now.AddDate(0, 0, -age),
		}))
	}

	n, err := audit.Purge(ctx, q, 90, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, listAll(t, q), 2)

	_, err = audit.Purge(ctx, q, 0, now)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, typ := range []string{audit.TypePageView, audit.TypePageView, audit.TypeLogin} {
		require.NoError(t, q.InsertAuditEvent(ctx, store.InsertAuditEventParams{
			Type: typ, Metadata: "{}", CreatedAt: now,
		}))
	}

	s, err := audit.Summarize(ctx, q, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Total)
	assert.Equal(t, int64(2), s.ByType[audit.TypePageView])
	assert.Equal(t, int64(1), s.ByType[audit.TypeLogin])
}
