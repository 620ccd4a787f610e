package provider

import (
	"context"
	"errors"

	"github.com/hummingbird-labs/hummingbird/config"
	openai_provider "github.com/hummingbird-labs/hummingbird/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	// Generate returns a free-text completion for the prompt.
	Generate(ctx context.Context, prompt string, model string) (string, error)
	// GenerateJSON asks the model for a JSON object and unmarshals it into out.
	GenerateJSON(ctx context.Context, prompt string, model string, out interface{}) error
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewOpenAIClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
