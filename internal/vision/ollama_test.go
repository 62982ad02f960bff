package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaComplete(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"{\"description\":\"x\"}"},"done":true}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 0)
	content, err := c.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"description":"x"}` {
		t.Errorf("content = %q", content)
	}
	if got.Stream {
		t.Error("stream should be false")
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Images) != 1 || got.Messages[0].Images[0] != "aGVsbG8=" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if got.Options.NumPredict != 300 {
		t.Errorf("num_predict = %d, want 300", got.Options.NumPredict)
	}
}

func TestOllamaComplete_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 0)
	_, err := c.Complete(context.Background(), testRequest())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
}

func TestOllamaIsRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer srv.Close()

	if !NewOllamaClient(srv.URL, 0).IsRunning(context.Background()) {
		t.Error("IsRunning = false, want true")
	}

	srv.Close()
	if NewOllamaClient(srv.URL, 0).IsRunning(context.Background()) {
		t.Error("IsRunning = true after close")
	}
}
