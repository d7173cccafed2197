package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OpenAIAdapter talks to any OpenAI-compatible chat completion endpoint.
type OpenAIAdapter struct {
	model llms.Model
	name  string
}

type OpenAIConfig struct {
	BaseURL string
	Token   string
	Model   string
}

func NewOpenAIAdapter(cfg OpenAIConfig) (*OpenAIAdapter, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.Model),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	return &OpenAIAdapter{model: model, name: cfg.Model}, nil
}

func (a *OpenAIAdapter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msgs := make([]llms.MessageContent, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt))

	resp, err := a.model.GenerateContent(ctx, msgs)
	if err != nil {
		if IsAuthError(err) {
			return "", fmt.Errorf("%w: %s: %v", ErrUnauthorized, a.name, err)
		}
		return "", fmt.Errorf("completion (%s): %w", a.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion (%s): empty response", a.name)
	}
	return resp.Choices[0].Content, nil
}
