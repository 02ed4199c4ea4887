package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Config holds connection settings shared by all backends. Empty fields take
// per-backend defaults.
type Config struct {
	Name       string
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// ErrUnknownProvider is returned by New for an unsupported backend name.
var ErrUnknownProvider = errors.New("unknown provider")

// Names lists the backends New understands.
var Names = []string{"openai", "anthropic", "ollama", "gemini", "mock"}

// New creates the backend selected by cfg.Name.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg)
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("provider %q: %w", cfg.Name, ErrUnknownProvider)
	}
}
