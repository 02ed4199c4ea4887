package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.2"
)

// OllamaProvider implements Provider against a local Ollama server.
type OllamaProvider struct {
	config Config
	client *api.Client
}

// NewOllamaProvider creates a new Ollama provider with the given config.
// APIKey is ignored.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url %q: %w", cfg.BaseURL, err)
	}
	return &OllamaProvider{config: cfg, client: api.NewClient(base, cfg.HTTPClient)}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) ChatComplete(ctx context.Context, r Request) (*Completion, error) {
	model := r.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	msgs := make([]api.Message, 0, len(r.Messages)+1)
	if r.SystemPrompt != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: r.SystemPrompt})
	}
	for _, m := range r.Messages {
		msgs = append(msgs, api.Message{Role: string(m.Role), Content: m.Content})
	}

	options := map[string]any{"temperature": r.Temperature}
	if maxTokens > 0 {
		options["num_predict"] = maxTokens
	}
	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Options:  options,
	}

	c := &Completion{}
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		c.Text += resp.Message.Content
		if resp.Done {
			c.TokensUsed = resp.PromptEvalCount + resp.EvalCount
		}
		return nil
	})
	if err != nil {
		var se api.StatusError
		if errors.As(err, &se) {
			return nil, &ServiceError{Provider: "ollama", StatusCode: se.StatusCode, Body: se.ErrorMessage, Err: err}
		}
		return nil, transportError("ollama", "chat", err)
	}
	return c, nil
}
