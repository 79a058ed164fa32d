// Package llm wraps the remote completion API (Groq's OpenAI-compatible
// endpoint) behind a small client that the router service consumes.
//
// The client sends the fixed two-message exchange (static persona system
// prompt + composed user prompt) and classifies upstream failures into the
// four user-visible kinds exported below. Raw upstream errors, credentials,
// and stack traces never cross this boundary.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/config"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
)

// Upstream failure family. Callers branch with errors.Is; the wrapped text is
// safe to show to users.
var (
	// ErrRateLimited indicates the upstream signalled throttling (HTTP 429).
	ErrRateLimited = errors.New("rate limit exceeded, please wait a moment")

	// ErrAuthFailed indicates the upstream rejected our credentials.
	ErrAuthFailed = errors.New("completion API authentication failed")

	// ErrModelError indicates the upstream rejected the requested model id.
	ErrModelError = errors.New("requested model is not available")

	// ErrUnavailable covers network/transport failures and anything else.
	ErrUnavailable = errors.New("AI service temporarily unavailable")
)

// Client is a thin completion-API client bound to one model configuration.
// It is safe for concurrent use.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New constructs a Client from the Groq configuration block. The base URL is
// configurable so tests can point the client at a local stub server.
func New(cfg config.GroqConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}
}

// Model reports the configured model id (surfaced in health and replies).
func (c *Client) Model() string { return c.model }

// Complete sends systemPrompt and userPrompt upstream and returns the reply
// text with token usage. On failure the returned error wraps exactly one of
// ErrRateLimited, ErrAuthFailed, ErrModelError, or ErrUnavailable.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, domain.Usage, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", domain.Usage{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.Usage{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	usage := domain.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// classify maps an upstream error onto the exported failure family.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAuthFailed
		case http.StatusNotFound:
			return ErrModelError
		}
		if code, ok := apiErr.Code.(string); ok {
			switch code {
			case "model_not_found", "model_decommissioned":
				return ErrModelError
			}
		}
		return ErrUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// Transport failures, malformed responses, etc.
	return ErrUnavailable
}
