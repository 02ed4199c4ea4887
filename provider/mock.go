package provider

import (
	"context"
	"sync"
)

const defaultMockResponse = "Got it. Let me know what else is on your mind."

// MockProvider is a scripted Provider for tests and offline use. It cycles
// through its responses and records every request it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	idx       int
	requests  []Request
}

// NewMock creates a MockProvider that cycles through the given responses.
func NewMock(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewFailingMock creates a MockProvider whose every call fails with err
// wrapped in a *ServiceError.
func NewFailingMock(err error) *MockProvider {
	return &MockProvider{err: err}
}

func (m *MockProvider) Name() string { return "mock" }

// ChatComplete returns the next scripted response.
func (m *MockProvider) ChatComplete(_ context.Context, r Request) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r)
	if m.err != nil {
		return nil, &ServiceError{Provider: "mock", Err: m.err}
	}
	text := defaultMockResponse
	if len(m.responses) > 0 {
		text = m.responses[m.idx%len(m.responses)]
		m.idx++
	}
	return &Completion{Text: text, TokensUsed: len(text)}, nil
}

// Requests returns the requests received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
