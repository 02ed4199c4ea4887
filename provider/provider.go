// Package provider defines the remote language-model backends that answer
// free-form utterances.
package provider

import (
	"context"
	"fmt"
)

// Role identifies the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat completion request. Zero Model and MaxTokens fall
// back to the provider's configured values.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Model        string
	Temperature  float64
	MaxTokens    int
}

// Completion is the text a provider produced for a Request.
type Completion struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokensUsed"`
}

// Provider is a remote model backend.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "ollama", "mock").
	Name() string

	// ChatComplete sends a non-streaming request and returns the full reply.
	// Failures are reported as *ServiceError.
	ChatComplete(ctx context.Context, req Request) (*Completion, error)
}

// ServiceError is returned when a provider cannot produce a completion.
// StatusCode is 0 for transport failures.
type ServiceError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func transportError(provider, op string, err error) *ServiceError {
	return &ServiceError{Provider: provider, Err: fmt.Errorf("%s: %w", op, err)}
}
