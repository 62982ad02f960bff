package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func anthropicRequest() Request {
	req := testRequest()
	req.Model = "claude-haiku-4-5"
	return req
}

func TestAnthropicComplete_RequestShape(t *testing.T) {
	var gotKey string
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content []struct {
				Type   string `json:"type"`
				Text   string `json:"text"`
				Source struct {
					Type      string `json:"type"`
					MediaType string `json:"media_type"`
					Data      string `json:"data"`
				} `json:"source"`
			} `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",`+
			`"content":[{"type":"text","text":"ok"}],"stop_reason":"end_turn",`+
			`"usage":{"input_tokens":10,"output_tokens":2}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", srv.URL, 0)
	content, err := c.Complete(context.Background(), anthropicRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "ok" {
		t.Errorf("content = %q, want %q", content, "ok")
	}
	if gotKey != "test-key" {
		t.Errorf("X-Api-Key = %q", gotKey)
	}
	if got.Model != "claude-haiku-4-5" || got.MaxTokens != 300 || got.Temperature != 0.1 {
		t.Errorf("unexpected request params: model=%q max_tokens=%d temperature=%v", got.Model, got.MaxTokens, got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || len(got.Messages[0].Content) != 2 {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	blocks := got.Messages[0].Content
	if blocks[0].Type != "text" || blocks[0].Text != "describe" {
		t.Errorf("text block = %+v", blocks[0])
	}
	img := blocks[1]
	if img.Type != "image" || img.Source.Type != "base64" || img.Source.MediaType != "image/png" || img.Source.Data != "aGVsbG8=" {
		t.Errorf("image block = %+v", img)
	}
}

func TestAnthropicComplete_SkipsNonTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m",`+
			`"content":[{"type":"thinking","thinking":"hmm","signature":"s"},{"type":"text","text":"{\"description\":\"x\"}"}],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", srv.URL, 0)
	content, err := c.Complete(context.Background(), anthropicRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"description":"x"}` {
		t.Errorf("content = %q", content)
	}
}

func TestAnthropicComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", srv.URL, 0)
	_, err := c.Complete(context.Background(), anthropicRequest())
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, want ErrNoContent", err)
	}
}

func TestAnthropicComplete_StatusErrorNoRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"type":"error","error":{"type":"api_error","message":"overloaded upstream"}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", srv.URL, 0)
	_, err := c.Complete(context.Background(), anthropicRequest())

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if se.Provider != "Anthropic" {
		t.Errorf("Provider = %q", se.Provider)
	}
	if !strings.Contains(se.Body, "overloaded upstream") {
		t.Errorf("Body = %q, want the upstream message", se.Body)
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestAnthropicComplete_MissingKey(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer srv.Close()

	c := NewAnthropicClient("", srv.URL, 0)
	_, err := c.Complete(context.Background(), anthropicRequest())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if called.Load() {
		t.Error("upstream should not be contacted without a key")
	}
}
