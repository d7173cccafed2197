package llm

import (
	"context"
	"sync"
)

// MockAdapter returns scripted responses for tests and keyless local runs.
type MockAdapter struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []CompletionRequest
}

func NewMockAdapter(responses ...string) *MockAdapter {
	return &MockAdapter{Responses: responses}
}

func (m *MockAdapter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "{}", nil
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}
