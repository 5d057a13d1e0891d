// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/concierge/internal/chat"
	"github.com/olegiv/concierge/internal/i18n"
	"github.com/olegiv/concierge/internal/inquiry"
	"github.com/olegiv/concierge/internal/middleware"
)

// ChatHandler proxies the chat widget to the language model.
type ChatHandler struct {
	chat         *chat.Service
	contactEmail string
	logger       *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *chat.Service, contactEmail string, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{chat: svc, contactEmail: contactEmail, logger: logger}
}

// Reply handles POST /api/chat. Provider failures answer 502 with a
// translated fallback and a mailto: link so the visitor can still reach the team.
func (h *ChatHandler) Reply(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLang(r)

	var req chat.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, i18n.T(lang, "chat.invalid"))
		return
	}
	if req.Language == "" || !i18n.IsSupported(req.Language) {
		req.Language = lang
	}

	reply, err := h.chat.Reply(r.Context(), middleware.GetSession(r), req)
	if err != nil {
		var rerr *chat.RequestError
		if errors.As(err, &rerr) {
			writeJSONError(w, http.StatusBadRequest, i18n.T(req.Language, rerr.Key))
			return
		}
		if !errors.Is(err, chat.ErrProviderUnavailable) {
			h.logger.Error("chat reply failed", "error", err)
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   i18n.T(req.Language, "chat.unavailable"),
			"mailto":  inquiry.MailtoLink(h.contactEmail, i18n.T(req.Language, "chat.title"), lastUserMessage(req.Messages)),
		})
		return
	}

	writeJSONSuccess(w, map[string]any{
		"reply": reply.Text,
		"model": reply.Model,
	})
}

// lastUserMessage returns the visitor's latest message for the mailto body.
func lastUserMessage(msgs []chat.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
