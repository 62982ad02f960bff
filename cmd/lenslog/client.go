package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/lenslog/internal/config"
)

type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// clientSlack is added to the vision timeout so the gateway, not the CLI,
// reports a slow upstream.
const clientSlack = 15 * time.Second

var newAPIClient = func() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	token, err := config.LookupAPIToken(config.NewKeychain())
	if err != nil {
		return nil, err
	}

	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      token,
		httpClient: &http.Client{Timeout: cfg.Vision.TimeoutDuration() + clientSlack},
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("gateway did not answer in time: %w", err)
		}
		return nil, fmt.Errorf("gateway not reachable at %s, is lenslog running? (%w)", c.baseURL, err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *apiClient) put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// getJSON is get followed by decodeJSON.
func (c *apiClient) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	return decodeJSON(resp, v)
}

// decodeJSON decodes a 2xx body into v. For other statuses it returns the
// gateway's {"error": ...} message, or the status text when the body has none.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gateway returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, e.Error)
		}
		text := strings.TrimSpace(http.StatusText(resp.StatusCode))
		if text == "" {
			text = "unexpected status"
		}
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, text)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
