// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider completes conversations with any OpenAI-compatible API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider. An empty baseURL uses the
// OpenAI endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)

	return &OpenAIProvider{client: openai.NewClient(all...), model: model}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai:" + p.model
}

// Complete sends the conversation to the chat completions endpoint.
func (p *OpenAIProvider) Complete(ctx context.Context, system string, history []Message) (Reply, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            openAIMessages(system, history),
		MaxCompletionTokens: openai.Int(MaxOutputTokens),
		Temperature:         openai.Float(0.4),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.New("openai: no choices returned")
	}
	return Reply{Text: resp.Choices[0].Message.Content, Model: resp.Model}, nil
}

func openAIMessages(system string, history []Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(system))
	for _, m := range history {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}
