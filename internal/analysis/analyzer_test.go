package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kalambet/lenslog/internal/vision"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeCompleter struct {
	content string
	err     error
	calls   int
	last    vision.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req vision.Request) (string, error) {
	f.calls++
	f.last = req
	return f.content, f.err
}

func TestAnalyzeFood_Success(t *testing.T) {
	fc := &fakeCompleter{content: "```json\n{\"description\":\"A bowl of rice\",\"macros\":{\"calories\":200,\"protein\":4,\"fat\":0.4,\"carbs\":45}}\n```"}
	a := New(fc, DefaultOptions())

	got, err := a.AnalyzeFood(context.Background(), EncodeImage(pngHeader))
	if err != nil {
		t.Fatalf("AnalyzeFood: %v", err)
	}
	if got.Description != "A bowl of rice" || got.Macros.Calories != 200 || got.Macros.Fat != 0 {
		t.Errorf("got %+v", got)
	}

	if fc.calls != 1 {
		t.Errorf("calls = %d, want 1", fc.calls)
	}
	if fc.last.Model != "gpt-4.1" || fc.last.MaxTokens != 300 || fc.last.Temperature != 0.1 {
		t.Errorf("unexpected request: model=%q max=%d temp=%v", fc.last.Model, fc.last.MaxTokens, fc.last.Temperature)
	}
	if fc.last.Image.MediaType != "image/png" {
		t.Errorf("media type = %q, want image/png", fc.last.Image.MediaType)
	}
	if fc.last.Prompt != FoodPrompt() {
		t.Error("food prompt not sent")
	}
}

func TestAnalyzeHomework_UsesLanguageAndModel(t *testing.T) {
	fc := &fakeCompleter{content: `{"description":"Fractions quiz","subject":"Math"}`}
	opts := DefaultOptions()
	opts.Language = "Chinese"
	a := New(fc, opts)

	got, err := a.AnalyzeHomework(context.Background(), "data:image/png;base64,"+EncodeImage(pngHeader))
	if err != nil {
		t.Fatalf("AnalyzeHomework: %v", err)
	}
	if got.Subject != "Math" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if fc.last.Model != "gpt-4o" || fc.last.MaxTokens != 2000 {
		t.Errorf("unexpected request: model=%q max=%d", fc.last.Model, fc.last.MaxTokens)
	}
	if !strings.Contains(fc.last.Prompt, "All text content should be in Chinese") {
		t.Error("prompt does not request the configured language")
	}
	if strings.Contains(fc.last.Prompt, "{{lang}}") {
		t.Error("prompt contains an unreplaced placeholder")
	}
}

func TestAnalyze_ErrorKinds(t *testing.T) {
	img := EncodeImage(pngHeader)
	tests := []struct {
		name    string
		fc      *fakeCompleter
		image   string
		kind    Kind
		message string
		calls   int
	}{
		{"no image", &fakeCompleter{}, "", KindInvalidInput, "No image provided", 0},
		{"bad base64", &fakeCompleter{}, "%%%not-base64", KindInvalidInput, "", 0},
		{"missing key", &fakeCompleter{err: vision.ErrMissingAPIKey}, img, KindConfigurationMissing, "vision API key not configured", 1},
		{"upstream status", &fakeCompleter{err: &vision.StatusError{Provider: "OpenAI", StatusCode: 401, Body: "invalid api key"}}, img, KindUpstreamError, "OpenAI API error: invalid api key", 1},
		{"no content", &fakeCompleter{err: vision.ErrNoContent}, img, KindUpstreamError, "No content received from upstream", 1},
		{"network", &fakeCompleter{err: fmt.Errorf("executing request: %w", errors.New("connection refused"))}, img, KindNetworkFailure, "", 1},
		{"format", &fakeCompleter{content: "Sorry, I can't see food."}, img, KindFormatError, "Invalid response format from AI analysis", 1},
		{"incomplete", &fakeCompleter{content: `{"description":"Pasta"}`}, img, KindIncompleteResult, "Incomplete analysis result", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.fc, DefaultOptions())
			_, err := a.AnalyzeFood(context.Background(), tt.image)
			if err == nil {
				t.Fatal("expected error")
			}
			if k := KindOf(err); k != tt.kind {
				t.Errorf("kind = %q, want %q", k, tt.kind)
			}
			if tt.message != "" && err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
			if tt.fc.calls != tt.calls {
				t.Errorf("calls = %d, want %d (no retries)", tt.fc.calls, tt.calls)
			}
		})
	}
}

func TestDecodeImage_TooLarge(t *testing.T) {
	big := make([]byte, MaxImageBytes+1)
	_, err := DecodeImage(EncodeImage(big))
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindInvalidInput)
	}
}

func TestDecodeImage_DefaultsToJPEG(t *testing.T) {
	img, err := DecodeImage(EncodeImage([]byte("plain bytes")))
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.MediaType != "image/jpeg" {
		t.Errorf("MediaType = %q, want image/jpeg", img.MediaType)
	}
}

func TestDecodeImage_MediaTypes(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"png", pngHeader, "image/png"},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), "image/jpeg"},
	}
	for _, tt := range tests {
		img, err := DecodeImage(EncodeImage(tt.raw))
		if err != nil {
			t.Fatalf("%s: DecodeImage: %v", tt.name, err)
		}
		if img.MediaType != tt.want {
			t.Errorf("%s: MediaType = %q, want %q", tt.name, img.MediaType, tt.want)
		}
	}
}

func TestDecodeImage_UnsupportedType(t *testing.T) {
	for name, raw := range map[string][]byte{
		"bmp": []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00"),
		"ico": {0x00, 0x00, 0x01, 0x00, 0x01, 0x00},
	} {
		_, err := DecodeImage(EncodeImage(raw))
		if KindOf(err) != KindInvalidInput {
			t.Errorf("%s: kind = %q, want %q", name, KindOf(err), KindInvalidInput)
		}
		if err == nil || !strings.Contains(err.Error(), "Unsupported image type") {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestAnalyzeFood_UnsupportedTypeSkipsUpstream(t *testing.T) {
	fc := &fakeCompleter{content: `{"description":"x","macros":{}}`}
	a := New(fc, DefaultOptions())
	_, err := a.AnalyzeFood(context.Background(), EncodeImage([]byte("BM\x00\x00\x00\x00\x00\x00\x00\x00")))
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindInvalidInput)
	}
	if fc.calls != 0 {
		t.Errorf("calls = %d, want 0", fc.calls)
	}
}

func TestHomeworkPrompt_DefaultLanguage(t *testing.T) {
	if !strings.Contains(HomeworkPrompt(""), "in English") {
		t.Error("empty language should fall back to English")
	}
}
