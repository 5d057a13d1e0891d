// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/concierge/internal/store"
	"github.com/olegiv/concierge/internal/util"
)

// Forwarder ships batches to an external collector.
type Forwarder interface {
	PostEvents(ctx context.Context, events []Event) error
}

// CountryResolver maps an IP address to a country code.
type CountryResolver interface {
	Country(ip string) string
}

// Config tunes the recorder queue.
type Config struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns the production queue settings.
func DefaultConfig() Config {
	return Config{
		QueueSize:     1024,
		BatchSize:     50,
		FlushInterval: 2 * time.Second,
	}
}

// Recorder queues events and writes them in batches from a single worker.
// Record never blocks: when the queue is full the event is dropped and counted.
type Recorder struct {
	db        *sql.DB
	logger    *slog.Logger
	cfg       Config
	queue     chan Event
	forwarder Forwarder
	geo       CountryResolver
	now       func() time.Time

	dropped atomic.Int64
	written atomic.Int64

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder writing to db.
func NewRecorder(db *sql.DB, logger *slog.Logger, cfg Config) *Recorder {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		db:     db,
		logger: logger,
		cfg:    cfg,
		queue:  make(chan Event, cfg.QueueSize),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetForwarder enables forwarding of written batches.
func (r *Recorder) SetForwarder(f Forwarder) {
	r.forwarder = f
}

// SetCountryResolver enables country enrichment.
func (r *Recorder) SetCountryResolver(g CountryResolver) {
	r.geo = g
}

// Record enqueues e. It returns false when the event was dropped.
// A nil recorder drops everything.
func (r *Recorder) Record(e Event) bool {
	if r == nil {
		return false
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	select {
	case r.queue <- e:
		return true
	default:
		if r.dropped.Add(1)%100 == 1 {
			r.logger.Warn("audit queue full, dropping events", "dropped", r.dropped.Load())
		}
		return false
	}
}

// FromRequest builds an event of type t enriched with the request's audit
// session, path, referrer, user agent and country.
func (r *Recorder) FromRequest(req *http.Request, t string, userID int64, metadata map[string]any) Event {
	ua := ParseUserAgent(req.UserAgent())
	e := Event{
		Type:      t,
		SessionID: SessionID(req.Context()),
		UserID:    userID,
		Path:      req.URL.Path,
		Referrer:  referrerHost(req.Referer()),
		Browser:   ua.Browser,
		OS:        ua.OS,
		Device:    ua.Device,
		Metadata:  metadata,
	}
	if r != nil && r.geo != nil {
		e.Country = r.geo.Country(util.ClientIP(req))
	}
	return e
}

// RecordRequest is FromRequest followed by Record.
func (r *Recorder) RecordRequest(req *http.Request, t string, userID int64, metadata map[string]any) {
	if r == nil {
		return
	}
	r.Record(r.FromRequest(req, t, userID, metadata))
}

// Dropped returns the number of events discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Written returns the number of events persisted.
func (r *Recorder) Written() int64 {
	if r == nil {
		return 0
	}
	return r.written.Load()
}

// Start launches the batching worker.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.done = make(chan struct{})

	r.wg.Add(1)
	go r.worker(ctx)
}

// Stop signals the worker, waits for it to drain the queue and flush.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
}

// Flush synchronously writes everything currently queued.
func (r *Recorder) Flush(ctx context.Context) {
	var batch []Event
	for {
		select {
		case e := <-r.queue:
			batch = append(batch, e)
			if len(batch) >= r.cfg.BatchSize {
				r.write(ctx, batch)
				batch = nil
			}
		default:
			r.write(ctx, batch)
			return
		}
	}
}

func (r *Recorder) worker(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, r.cfg.BatchSize)
	for {
		select {
		case e := <-r.queue:
			batch = append(batch, e)
			if len(batch) >= r.cfg.BatchSize {
				r.write(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.write(ctx, batch)
				batch = batch[:0]
			}
		case <-r.done:
			r.write(context.Background(), batch)
			r.Flush(context.Background())
			return
		case <-ctx.Done():
			r.write(context.Background(), batch)
			r.Flush(context.Background())
			return
		}
	}
}

// write persists a batch and forwards it. Cancelled parent contexts still
// get a bounded write so shutdown does not lose the tail of the queue.
func (r *Recorder) write(parent context.Context, batch []Event) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
	defer cancel()

	params := make([]store.InsertAuditEventParams, 0, len(batch))
	for _, e := range batch {
		params = append(params, toParams(e))
	}
	if err := store.InsertAuditEvents(ctx, r.db, params); err != nil {
		r.logger.Error("failed to write audit events", "error", err, "count", len(batch))
		return
	}
	r.written.Add(int64(len(batch)))

	if r.forwarder != nil {
		if err := r.forwarder.PostEvents(ctx, batch); err != nil {
			r.logger.Warn("failed to forward audit events to backend", "error", err, "count", len(batch))
		}
	}
}

func toParams(e Event) store.InsertAuditEventParams {
	meta := "{}"
	if len(e.Metadata) > 0 {
		if data, err := json.Marshal(e.Metadata); err == nil {
			meta = string(data)
		}
	}
	return store.InsertAuditEventParams{
		Type:      e.Type,
		SessionID: e.SessionID,
		UserID:    util.NullInt64(e.UserID),
		Path:      e.Path,
		Referrer:  e.Referrer,
		Browser:   e.Browser,
		OS:        e.OS,
		Device:    e.Device,
		Country:   e.Country,
		Metadata:  meta,
		CreatedAt: e.CreatedAt,
	}
}

// FromStore converts a stored row back into an Event.
func FromStore(row store.AuditEvent) Event {
	e := Event{
		ID:        row.ID,
		Type:      row.Type,
		SessionID: row.SessionID,
		UserID:    row.UserID.Int64,
		Path:      row.Path,
		Referrer:  row.Referrer,
		Browser:   row.Browser,
		OS:        row.OS,
		Device:    row.Device,
		Country:   row.Country,
		CreatedAt: row.CreatedAt,
	}
	if row.Metadata != "" && row.Metadata != "{}" {
		_ = json.Unmarshal([]byte(row.Metadata), &e.Metadata)
	}
	return e
}

// referrerHost keeps only the host of a referrer URL.
func referrerHost(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
