// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	"github.com/olegiv/concierge/internal/config"
)

// NewProvider builds the provider selected by cfg. It returns nil, nil when
// chat is not configured.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	if !cfg.ChatEnabled() {
		return nil, nil
	}
	switch cfg.ChatProvider {
	case config.ChatProviderOpenAI:
		p, err := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ChatProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.ChatProvider)
	}
}
