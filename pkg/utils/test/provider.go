package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/chameleon/pkg/llm"
)

// MockProvider is a provider.Client that records requests and returns a
// configurable response.
type MockProvider struct {
	mu sync.Mutex

	// Requests accumulates every request passed to Complete.
	Requests []*llm.ChatRequest

	// Response is returned by Complete when Err is nil.
	Response *llm.ChatResponse

	// Err causes Complete to fail.
	Err error

	// PanicWith makes Complete panic with the given value.
	PanicWith any
}

// NewMockProvider returns a MockProvider answering with a single choice
// holding content.
func NewMockProvider(content string) *MockProvider {
	return &MockProvider{Response: TextResponse(content)}
}

// TextResponse builds a one-choice response.
func TextResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model: "mock",
		Choices: []llm.Choice{{
			Message:      llm.NewTextMessage(llm.RoleAssistant, content),
			FinishReason: "stop",
		}},
	}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Complete(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.PanicWith != nil {
		panic(m.PanicWith)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// RequestCount returns the number of Complete calls.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
