package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient runs vision prompts through the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	apiKey string
}

// NewAnthropicClient creates a client. The SDK's own retry loop is disabled.
func NewAnthropicClient(apiKey, baseURL string, timeout time.Duration) *AnthropicClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{client: &client, apiKey: apiKey}
}

// Complete sends one user message carrying the prompt and the image, and
// returns the first text block of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: param.NewOpt(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(req.Prompt),
				anthropic.NewImageBlockBase64(req.Image.MediaType, req.Image.Data),
			),
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: "Anthropic", StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", fmt.Errorf("executing request: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrNoContent
}
