package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com"
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenAIMaxTokens = 1024
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider with the given config.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultOpenAIMaxTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &OpenAIProvider{config: cfg}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// openaiRequest is the request body for the Chat Completions API.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse is the response from the Chat Completions API.
type openaiResponse struct {
	ID      string         `json:"id"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
	Error   *openaiError   `json:"error,omitempty"`
}

type openaiChoice struct {
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openaiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (p *OpenAIProvider) ChatComplete(ctx context.Context, r Request) (*Completion, error) {
	data, err := json.Marshal(p.buildRequest(r))
	if err != nil {
		return nil, transportError("openai", "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, transportError("openai", "create request", err)
	}
	p.setHeaders(req)

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError("openai", "send request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("openai", "read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Provider: "openai", StatusCode: resp.StatusCode, Body: redact(string(body), p.config.APIKey)}
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, transportError("openai", "unmarshal response", err)
	}

	if apiResp.Error != nil {
		return nil, &ServiceError{
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Body:       redact(string(body), p.config.APIKey),
			Err:        errors.New(apiResp.Error.Type + ": " + apiResp.Error.Message),
		}
	}

	return p.parseResponse(&apiResp), nil
}

func (p *OpenAIProvider) buildRequest(r Request) *openaiRequest {
	req := &openaiRequest{
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}
	if req.Model == "" {
		req.Model = p.config.Model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	// OpenAI takes the system prompt inline as the first message
	if r.SystemPrompt != "" {
		req.Messages = append(req.Messages, openaiMessage{Role: "system", Content: r.SystemPrompt})
	}
	for _, msg := range r.Messages {
		req.Messages = append(req.Messages, openaiMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return req
}

func (p *OpenAIProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
}

func (p *OpenAIProvider) parseResponse(apiResp *openaiResponse) *Completion {
	c := &Completion{TokensUsed: apiResp.Usage.TotalTokens}
	if c.TokensUsed == 0 {
		c.TokensUsed = apiResp.Usage.PromptTokens + apiResp.Usage.CompletionTokens
	}
	if len(apiResp.Choices) > 0 {
		c.Text = apiResp.Choices[0].Message.Content
	}
	return c
}
