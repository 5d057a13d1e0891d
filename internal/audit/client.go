// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Client batch limits.
const (
	MaxClientBatch         = 20
	MaxClientMetadataBytes = 2048
	maxClientPathLength    = 512
)

// Client batch validation errors.
var (
	ErrEmptyBatch       = errors.New("no events in batch")
	ErrBatchTooLarge    = fmt.Errorf("batch exceeds %d events", MaxClientBatch)
	ErrUnknownType      = errors.New("event type not accepted from clients")
	ErrMetadataTooLarge = fmt.Errorf("event metadata exceeds %d bytes", MaxClientMetadataBytes)
)

// ClientEvent is an event submitted by the browser.
type ClientEvent struct {
	Type     string         `json:"type"`
	Path     string         `json:"path,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ClientBatch is the body of POST /api/audit/events.
type ClientBatch struct {
	Events []ClientEvent `json:"events"`
}

// Validate checks batch size, type whitelist and metadata size.
func (b ClientBatch) Validate() error {
	if len(b.Events) == 0 {
		return ErrEmptyBatch
	}
	if len(b.Events) > MaxClientBatch {
		return ErrBatchTooLarge
	}
	for i, e := range b.Events {
		if !IsClientType(e.Type) {
			return fmt.Errorf("event %d (%q): %w", i, e.Type, ErrUnknownType)
		}
		if len(e.Metadata) > 0 {
			data, err := json.Marshal(e.Metadata)
			if err != nil {
				return fmt.Errorf("event %d: invalid metadata: %w", i, err)
			}
			if len(data) > MaxClientMetadataBytes {
				return fmt.Errorf("event %d: %w", i, ErrMetadataTooLarge)
			}
		}
	}
	return nil
}

// RecordClientBatch validates b and records each event enriched from req.
// A client-supplied path replaces the request path when it is site-relative.
func (r *Recorder) RecordClientBatch(req *http.Request, b ClientBatch, userID int64) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	accepted := 0
	for _, ce := range b.Events {
		e := r.FromRequest(req, ce.Type, userID, ce.Metadata)
		e.Path = ""
		if strings.HasPrefix(ce.Path, "/") && !strings.HasPrefix(ce.Path, "//") && len(ce.Path) <= maxClientPathLength {
			e.Path = ce.Path
		}
		if e.Path == "" {
			e.Path = referrerPath(req.Referer())
		}
		if r.Record(e) {
			accepted++
		}
	}
	return accepted, nil
}

func referrerPath(ref string) string {
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			p := rest[j:]
			if k := strings.IndexAny(p, "?#"); k >= 0 {
				p = p[:k]
			}
			return p
		}
		return "/"
	}
	return ""
}
