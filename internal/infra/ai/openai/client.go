package openai

import (
	"context"
	"errors"
	"fmt"

	domai "github.com/bryanwahyu/healthscan-ai/internal/domain/ai"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/ai/prompt"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 1024
	temperature  = 0.7
)

// Client adapts the chat-completion endpoint to the domain ChatClient port.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient with an optional baseURL override (tests point it at a local server).
func NewClient(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends the conversation with the diagnosis system prompt prepended.
// A provider quota error maps to domai.ErrQuotaExceeded so the boundary can
// show the actionable message; other provider errors keep their own text.
func (c *Client) Complete(ctx context.Context, messages []domai.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.ChatSystem()},
		},
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			// non-quota provider errors keep the provider's own message
			return "", &domai.ProviderError{Message: apiErr.Message}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
		return true
	}
	return false
}
