package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
	anthropicAPIVersion       = "2023-06-01"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider with the given config.
func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultAnthropicMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &AnthropicProvider{config: cfg}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response from the Messages API.
type anthropicResponse struct {
	ID      string              `json:"id"`
	Type    string              `json:"type"`
	Content []anthropicRespItem `json:"content"`
	Usage   anthropicUsage      `json:"usage"`
	Error   *anthropicError     `json:"error,omitempty"`
}

type anthropicRespItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (p *AnthropicProvider) ChatComplete(ctx context.Context, r Request) (*Completion, error) {
	data, err := json.Marshal(p.buildRequest(r))
	if err != nil {
		return nil, transportError("anthropic", "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return nil, transportError("anthropic", "create request", err)
	}
	p.setHeaders(req)

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError("anthropic", "send request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("anthropic", "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Provider: "anthropic", StatusCode: resp.StatusCode, Body: redact(string(body), p.config.APIKey)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, transportError("anthropic", "unmarshal response", err)
	}

	if apiResp.Error != nil {
		return nil, &ServiceError{
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Body:       redact(string(body), p.config.APIKey),
			Err:        errors.New(apiResp.Error.Type + ": " + apiResp.Error.Message),
		}
	}

	return p.parseResponse(&apiResp), nil
}

func (p *AnthropicProvider) buildRequest(r Request) *anthropicRequest {
	req := &anthropicRequest{
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		System:      r.SystemPrompt,
		Temperature: r.Temperature,
	}
	if req.Model == "" {
		req.Model = p.config.Model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = p.config.MaxTokens
	}
	for _, msg := range r.Messages {
		req.Messages = append(req.Messages, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return req
}

func (p *AnthropicProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

func (p *AnthropicProvider) parseResponse(apiResp *anthropicResponse) *Completion {
	var textParts []string
	for _, item := range apiResp.Content {
		if item.Type == "text" {
			textParts = append(textParts, item.Text)
		}
	}
	return &Completion{
		Text:       strings.Join(textParts, ""),
		TokensUsed: apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
	}
}
