package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultTimeout       = 60 * time.Second
	maxErrorBody         = 4 << 10
)

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the given API key. An empty baseURL
// selects the public OpenAI endpoint; a zero timeout selects 60s.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete sends one chat completion and returns choices[0].message.content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(newChatRequest(req))
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{Provider: "OpenAI", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	content := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if content == "" {
		return "", ErrNoContent
	}
	return content, nil
}
