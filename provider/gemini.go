package provider

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider using the Gemini API.
type GeminiProvider struct {
	config Config
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider with the given config.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{config: cfg, client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) ChatComplete(ctx context.Context, r Request) (*Completion, error) {
	model := r.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	contents := make([]*genai.Content, 0, len(r.Messages))
	for _, m := range r.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(r.Temperature)),
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}
	if r.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(r.SystemPrompt, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ServiceError{Provider: "gemini", StatusCode: apiErr.Code, Body: redact(apiErr.Message, p.config.APIKey), Err: err}
		}
		return nil, transportError("gemini", "generate content", err)
	}

	c := &Completion{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		c.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return c, nil
}
