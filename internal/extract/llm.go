// Package extract converts raw channel messages into structured trading signals.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/bluzername/telegram-financial-harvester/internal/errors"
)

// LLMClient is the completion interface used by the extractor.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient implements LLMClient using the OpenAI API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a new OpenAI LLM client.
func NewOpenAIClient(apiKey, model string, maxTokens int) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Complete sends a prompt to the LLM and returns the response text. Each
// call is stateless and single-shot; no conversation memory is kept.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyAPIError maps OpenAI failures onto the domain taxonomy so callers
// can tell auth failures and rate limits apart from generic transport errors.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Wrap(apperrors.ErrAuthFailed, apiErr.Message)
		case http.StatusTooManyRequests:
			return apperrors.Wrap(apperrors.ErrRateLimited, apiErr.Message)
		}
	}
	return fmt.Errorf("openai completion failed: %w", err)
}
