// Package vision talks to hosted vision-language models. Every provider takes
// one instruction prompt plus one inline image and returns the model's free
// text reply; interpreting that text is left to the caller.
package vision

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned before any network traffic when a provider that
// needs a credential has none configured.
var ErrMissingAPIKey = errors.New("vision API key not configured")

// ErrNoContent is returned when the provider answered 2xx without any text.
var ErrNoContent = errors.New("no content received from upstream")

// Image is a base64-encoded picture without any data-URI prefix.
type Image struct {
	Data      string
	MediaType string
}

// DataURL renders the image as an inline data URI.
func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MediaType, i.Data)
}

// Request is one single-turn vision completion.
type Request struct {
	Model       string
	Prompt      string
	Image       Image
	MaxTokens   int
	Temperature float64
}

// Completer is implemented by every upstream provider. Implementations must not
// retry on their own.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError reports a non-2xx answer from the provider. Body carries the
// provider's error text when one was sent.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Body)
}
