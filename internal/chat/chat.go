// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package chat proxies visitor conversations to a hosted language model,
// grounding the assistant in the current catalog.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/olegiv/concierge/internal/audit"
	"github.com/olegiv/concierge/internal/catalog"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/vip"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Defaults used when Config leaves a limit unset.
const (
	DefaultMaxHistory    = 12
	DefaultMaxMessageLen = 2000
	DefaultTimeout       = 30 * time.Second
	MaxOutputTokens      = 600
	maxDigestVillas      = 30
)

// ErrProviderUnavailable is returned when no provider is configured or the
// provider call failed.
var ErrProviderUnavailable = errors.New("chat: provider unavailable")

// RequestError is an invalid chat request. Key is a translation key.
type RequestError struct {
	Key    string
	Reason string
}

func (e *RequestError) Error() string {
	return "chat: invalid request: " + e.Reason
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a conversation submitted by the chat widget.
type Request struct {
	Messages []Message `json:"messages"`
	Language string    `json:"language,omitempty"`
}

// Reply is the assistant's answer.
type Reply struct {
	Text  string `json:"reply"`
	Model string `json:"model,omitempty"`
}

// Provider completes a conversation.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system string, history []Message) (Reply, error)
}

// CatalogReader is the part of the catalog the assistant is told about.
type CatalogReader interface {
	ListVillas(ctx context.Context, viewer *vip.Session, f catalog.Filter) ([]catalog.Villa, error)
	Yachts(ctx context.Context) ([]catalog.Yacht, error)
	Services(ctx context.Context) ([]catalog.Service, error)
}

// Config tunes a Service.
type Config struct {
	BrandName     string
	ContactEmail  string
	MaxHistory    int
	MaxMessageLen int
	Timeout       time.Duration
}

// Service answers chat requests.
type Service struct {
	provider Provider
	catalog  CatalogReader
	recorder *audit.Recorder
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a chat service. A nil provider makes every Reply fail
// with ErrProviderUnavailable.
func NewService(p Provider, cat CatalogReader, rec *audit.Recorder, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.MaxMessageLen <= 0 {
		cfg.MaxMessageLen = DefaultMaxMessageLen
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Service{provider: p, catalog: cat, recorder: rec, cfg: cfg, logger: logger}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Reply validates req, trims its history and asks the provider for an answer.
func (s *Service) Reply(ctx context.Context, viewer *vip.Session, req Request) (Reply, error) {
	history, err := s.prepare(req.Messages)
	if err != nil {
		return Reply{}, err
	}
	if !s.Enabled() {
		return Reply{}, ErrProviderUnavailable
	}

	lang := req.Language
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLanguage
	}
	system := s.systemPrompt(ctx, viewer, lang)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.provider.Complete(callCtx, system, history)
	if err == nil && strings.TrimSpace(reply.Text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		s.logger.Warn("chat provider failed",
			"provider", s.provider.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return Reply{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	reply.Text = strings.TrimSpace(reply.Text)

	var userID int64
	if viewer != nil {
		userID = viewer.UserID
	}
	last := history[len(history)-1]
	s.recorder.Record(audit.Event{
		Type:      audit.TypeChatMessage,
		SessionID: audit.SessionID(ctx),
		UserID:    userID,
		Path:      "/api/chat",
		Metadata: map[string]any{
			"provider":    s.provider.Name(),
			"turns":       len(history),
			"message_len": utf8.RuneCountInString(last.Content),
			"reply_len":   utf8.RuneCountInString(reply.Text),
			"duration_ms": time.Since(start).Milliseconds(),
			"language":    lang,
			"vip":         viewer.CanViewPrivate(),
		},
	})

	return reply, nil
}

// prepare validates messages and keeps the MaxHistory most recent.
func (s *Service) prepare(msgs []Message) ([]Message, error) {
	if len(msgs) == 0 {
		return nil, &RequestError{Key: "chat.invalid", Reason: "no messages"}
	}

	out := make([]Message, 0, len(msgs))
	for i, m := range msgs {
		m.Role = strings.ToLower(strings.TrimSpace(m.Role))
		m.Content = strings.TrimSpace(m.Content)
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, &RequestError{Key: "chat.invalid", Reason: fmt.Sprintf("message %d has role %q", i, m.Role)}
		}
		if m.Content == "" {
			return nil, &RequestError{Key: "chat.invalid", Reason: fmt.Sprintf("message %d is empty", i)}
		}
		if utf8.RuneCountInString(m.Content) > s.cfg.MaxMessageLen {
			return nil, &RequestError{Key: "validation.too_long", Reason: fmt.Sprintf("message %d is too long", i)}
		}
		out = append(out, m)
	}

	if out[len(out)-1].Role != RoleUser {
		return nil, &RequestError{Key: "chat.invalid", Reason: "last message must come from the user"}
	}

	if len(out) > s.cfg.MaxHistory {
		out = out[len(out)-s.cfg.MaxHistory:]
	}
	// Providers expect the conversation to open with a user turn.
	for len(out) > 1 && out[0].Role != RoleUser {
		out = out[1:]
	}
	return out, nil
}

func (s *Service) systemPrompt(ctx context.Context, viewer *vip.Session, lang string) string {
	var b strings.Builder
	brand := s.cfg.BrandName
	if brand == "" {
		brand = "our concierge"
	}

	fmt.Fprintf(&b, "You are the concierge assistant of %s, a luxury villa rental and concierge service.\n", brand)
	fmt.Fprintf(&b, "Answer in %s. Be warm, concise and precise.\n", languageName(lang))
	b.WriteString("Only recommend villas, yachts and services listed below. Never invent prices or availability.\n")
	if s.cfg.ContactEmail != "" {
		fmt.Fprintf(&b, "For bookings, availability or anything you cannot answer, invite the guest to use the contact form or write to %s.\n", s.cfg.ContactEmail)
	}
	if viewer.CanViewPrivate() {
		fmt.Fprintf(&b, "The guest is a signed-in VIP member named %s; private listings may be discussed.\n", viewer.Name)
	} else {
		b.WriteString("The guest is not signed in. Never mention private or off-market listings.\n")
	}

	b.WriteString(s.digest(ctx, viewer))
	return b.String()
}

// digest summarizes the catalog visible to viewer.
func (s *Service) digest(ctx context.Context, viewer *vip.Session) string {
	if s.catalog == nil {
		return ""
	}
	var b strings.Builder

	villas, err := s.catalog.ListVillas(ctx, viewer, catalog.Filter{})
	if err != nil {
		s.logger.Warn("chat digest: listing villas failed", "error", err)
	}
	if len(villas) > 0 {
		b.WriteString("\nVillas:\n")
		for i, v := range villas {
			if i == maxDigestVillas {
				break
			}
			fmt.Fprintf(&b, "- %s (%s, %s): %d bedrooms, up to %d guests, %s",
				v.Name, v.Location, v.Region, v.Bedrooms, v.Guests, v.PriceText)
			if v.Private {
				b.WriteString(" [private]")
			}
			fmt.Fprintf(&b, ". /villas/%s\n", v.Slug)
		}
	}

	yachts, err := s.catalog.Yachts(ctx)
	if err != nil {
		s.logger.Warn("chat digest: listing yachts failed", "error", err)
	}
	if len(yachts) > 0 {
		b.WriteString("\nYachts:\n")
		for _, y := range yachts {
			fmt.Fprintf(&b, "- %s (%s, %d cabins, %d guests): %s. /yachts/%s\n",
				y.Name, y.Length, y.Cabins, y.Guests, y.PriceText, y.Slug)
		}
	}

	services, err := s.catalog.Services(ctx)
	if err != nil {
		s.logger.Warn("chat digest: listing services failed", "error", err)
	}
	if len(services) > 0 {
		b.WriteString("\nConcierge services:\n")
		for _, sv := range services {
			fmt.Fprintf(&b, "- %s: %s\n", sv.Title, sv.Summary)
		}
	}
	return b.String()
}

// languageName returns the English name of a language code.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return "English"
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return "English"
}
