// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package inquiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/store"
)

// errRelayDisabled is stored on inquiries received without a configured relay.
var errRelayDisabled = errors.New("form relay not configured")

// CaptchaVerifier checks a captcha response. *captcha.Verifier implements it.
type CaptchaVerifier interface {
	Verify(ctx context.Context, response, remoteIP string) error
}

// Meta describes the request an inquiry arrived with.
type Meta struct {
	IP        string
	SessionID string
	UserID    int64
	Path      string
}

// Result is the outcome of a submission. When Relayed is false the visitor
// should be offered MailtoURL instead.
type Result struct {
	ID        int64  `json:"id,omitempty"`
	Relayed   bool   `json:"relayed"`
	MailtoURL string `json:"mailto,omitempty"`
}

// Service handles inquiry submissions.
type Service struct {
	queries      *store.Queries
	relay        Relayer
	captcha      CaptchaVerifier
	recorder     *audit.Recorder
	contactEmail string
	logger       *slog.Logger
	now          func() time.Time
}

// Config wires a Service. Relay and Captcha may be nil.
type Config struct {
	Relay        Relayer
	Captcha      CaptchaVerifier
	Recorder     *audit.Recorder
	ContactEmail string
}

// NewService creates an inquiry service.
func NewService(q *store.Queries, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		queries:      q,
		relay:        cfg.Relay,
		captcha:      cfg.Captcha,
		recorder:     cfg.Recorder,
		contactEmail: cfg.ContactEmail,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ContactEmail returns the address used for mailto: fallbacks.
func (s *Service) ContactEmail() string {
	return s.contactEmail
}

// Submit validates, stores and relays an inquiry. Validation failures are
// returned as ValidationErrors and captcha failures as *captcha.Error. A relay
// failure is not an error: the inquiry is kept and Result carries a mailto link.
func (s *Service) Submit(ctx context.Context, in Input, meta Meta) (Result, error) {
	in = in.Normalize()

	if in.Honeypot != "" {
		s.logger.Info("inquiry honeypot triggered", "ip", meta.IP)
		return Result{Relayed: true}, nil
	}

	if errs := validate(in, s.now()); errs != nil {
		return Result{}, errs
	}

	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, in.Captcha, meta.IP); err != nil {
			return Result{}, err
		}
	}

	row, err := s.queries.CreateInquiry(ctx, store.CreateInquiryParams{
		Kind:      string(in.Kind),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Subject:   in.DefaultSubject(),
		ItemSlug:  in.ItemSlug,
		Message:   in.Message,
		CheckIn:   in.CheckIn,
		CheckOut:  in.CheckOut,
		Guests:    int64(in.Guests),
		Language:  in.Language,
		IPAddress: meta.IP,
		SessionID: meta.SessionID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("storing inquiry: %w", err)
	}

	res := Result{ID: row.ID}
	relayErr := s.send(ctx, row.ID, in)
	status, errText := store.InquiryRelayed, ""
	if relayErr != nil {
		status, errText = store.InquiryFailed, relayErr.Error()
		res.MailtoURL = MailtoURL(s.contactEmail, in)
		s.logger.Warn("inquiry relay failed", "inquiry_id", row.ID, "kind", in.Kind, "error", relayErr)
	} else {
		res.Relayed = true
		s.logger.Info("inquiry relayed", "inquiry_id", row.ID, "kind", in.Kind)
	}

	if err := s.queries.UpdateInquiryStatus(ctx, row.ID, status, errText); err != nil {
		s.logger.Error("failed to update inquiry status", "inquiry_id", row.ID, "error", err)
	}

	s.recorder.Record(audit.Event{
		Type:      audit.TypeInquirySubmitted,
		SessionID: meta.SessionID,
		UserID:    meta.UserID,
		Path:      meta.Path,
		Metadata: map[string]any{
			"inquiry_id": row.ID,
			"kind":       string(in.Kind),
			"item":       in.ItemSlug,
			"relayed":    res.Relayed,
		},
	})

	return res, nil
}

func (s *Service) send(ctx context.Context, id int64, in Input) error {
	if s.relay == nil {
		return errRelayDisabled
	}
	return s.relay.Send(ctx, NewPayload(id, in))
}

// List returns stored inquiries newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]store.Inquiry, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.queries.ListInquiries(ctx, store.ListInquiriesParams{
		Status: status,
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing inquiries: %w", err)
	}
	total, err := s.queries.CountInquiries(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting inquiries: %w", err)
	}
	return items, total, nil
}
