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
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient runs vision prompts against a local Ollama instance, e.g. with
// a llava or llama3.2-vision model. It needs no credential.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient creates a client targeting the given Ollama base URL.
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete sends a non-streaming /api/chat request with the image attached.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model: req.Model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: req.Prompt,
			Images:  []string{req.Image.Data},
		}},
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{Provider: "Ollama", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if chatResp.Error != "" {
		return "", &StatusError{Provider: "Ollama", StatusCode: resp.StatusCode, Body: chatResp.Error}
	}
	if chatResp.Message.Content == "" {
		return "", ErrNoContent
	}
	return chatResp.Message.Content, nil
}

// IsRunning returns true if the Ollama server responds to GET /api/tags with 200.
func (c *OllamaClient) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
