package vision

import (
	"fmt"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// ProviderConfig holds what is needed to construct an upstream client.
type ProviderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// DefaultModels returns the food and homework models used for provider when
// none are configured. An empty provider means OpenAI.
func DefaultModels(provider string) (food, homework string) {
	switch provider {
	case ProviderAnthropic:
		return "claude-haiku-4-5", "claude-sonnet-4-5"
	case ProviderOllama:
		return "llama3.2-vision", "llama3.2-vision"
	default:
		return "gpt-4.1", "gpt-4o"
	}
}

// New returns the Completer for cfg.Provider. An empty provider selects OpenAI.
// A missing API key is not an error here; it surfaces on the first Complete.
func New(cfg ProviderConfig) (Completer, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout), nil
	case ProviderOllama:
		return NewOllamaClient(cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}
