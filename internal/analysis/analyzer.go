// Package analysis turns one photo into a validated food or homework record by
// way of a vision model. It owns the prompts, the reply parsing and coercion,
// and the tagged error taxonomy surfaced to clients.
package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kalambet/lenslog/internal/vision"
)

// Options configures the two analysis requests.
type Options struct {
	FoodModel         string
	HomeworkModel     string
	FoodMaxTokens     int
	HomeworkMaxTokens int
	Temperature       float64
	Language          string
}

// DefaultOptions returns the models and budgets lenslog ships with.
func DefaultOptions() Options {
	food, homework := vision.DefaultModels(vision.ProviderOpenAI)
	return Options{
		FoodModel:         food,
		HomeworkModel:     homework,
		FoodMaxTokens:     300,
		HomeworkMaxTokens: 2000,
		Temperature:       0.1,
		Language:          DefaultLanguage,
	}
}

// Analyzer sends images to a vision provider and validates the replies.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	completer vision.Completer
	opts      Options
}

// New creates an Analyzer. Zero-valued options fall back to DefaultOptions.
func New(completer vision.Completer, opts Options) *Analyzer {
	def := DefaultOptions()
	if opts.FoodModel == "" {
		opts.FoodModel = def.FoodModel
	}
	if opts.HomeworkModel == "" {
		opts.HomeworkModel = def.HomeworkModel
	}
	if opts.FoodMaxTokens <= 0 {
		opts.FoodMaxTokens = def.FoodMaxTokens
	}
	if opts.HomeworkMaxTokens <= 0 {
		opts.HomeworkMaxTokens = def.HomeworkMaxTokens
	}
	if opts.Language == "" {
		opts.Language = def.Language
	}
	return &Analyzer{completer: completer, opts: opts}
}

// AnalyzeFood estimates the description and macros of the pictured meal.
func (a *Analyzer) AnalyzeFood(ctx context.Context, encoded string) (FoodAnalysis, error) {
	img, err := DecodeImage(encoded)
	if err != nil {
		return FoodAnalysis{}, err
	}

	content, err := a.complete(ctx, vision.Request{
		Model:       a.opts.FoodModel,
		Prompt:      FoodPrompt(),
		Image:       img,
		MaxTokens:   a.opts.FoodMaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		slog.Warn("food analysis failed", "kind", KindOf(err), "error", err)
		return FoodAnalysis{}, err
	}

	result, err := ParseFood(content)
	if err != nil {
		slog.Warn("food analysis reply rejected", "kind", KindOf(err), "error", err)
		slog.Debug("raw food analysis reply", "content", content)
		return FoodAnalysis{}, err
	}
	return result, nil
}

// AnalyzeHomework grades the pictured homework question by question.
func (a *Analyzer) AnalyzeHomework(ctx context.Context, encoded string) (HomeworkAnalysis, error) {
	img, err := DecodeImage(encoded)
	if err != nil {
		return HomeworkAnalysis{}, err
	}

	content, err := a.complete(ctx, vision.Request{
		Model:       a.opts.HomeworkModel,
		Prompt:      HomeworkPrompt(a.opts.Language),
		Image:       img,
		MaxTokens:   a.opts.HomeworkMaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		slog.Warn("homework analysis failed", "kind", KindOf(err), "error", err)
		return HomeworkAnalysis{}, err
	}

	result, err := ParseHomework(content)
	if err != nil {
		slog.Warn("homework analysis reply rejected", "kind", KindOf(err), "error", err)
		slog.Debug("raw homework analysis reply", "content", content)
		return HomeworkAnalysis{}, err
	}
	return result, nil
}

// complete makes exactly one upstream call and tags any failure.
func (a *Analyzer) complete(ctx context.Context, req vision.Request) (string, error) {
	content, err := a.completer.Complete(ctx, req)
	if err == nil {
		return content, nil
	}

	var se *vision.StatusError
	switch {
	case errors.Is(err, vision.ErrMissingAPIKey):
		return "", newError(KindConfigurationMissing, err, "vision API key not configured")
	case errors.As(err, &se):
		return "", newError(KindUpstreamError, err, "%s", se.Error())
	case errors.Is(err, vision.ErrNoContent):
		return "", newError(KindUpstreamError, err, "No content received from upstream")
	default:
		return "", newError(KindNetworkFailure, err, "Network failure contacting vision provider: %v", err)
	}
}
