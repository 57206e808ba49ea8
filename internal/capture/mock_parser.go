package capture

import (
	"context"
	"sync"

	"fintrack/internal/service"
)

// MockParser is a test implementation of the TransactionParser interface.
type MockParser struct {
	result *service.ParsedTransaction
	err    error
	calls  []string
	mu     sync.Mutex
}

// NewMockParser creates a mock that returns the given result or error.
func NewMockParser(result *service.ParsedTransaction, err error) *MockParser {
	return &MockParser{result: result, err: err}
}

// Calls returns every raw text the mock has been asked to parse.
func (m *MockParser) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// ParseTransactionText records the call and returns the configured outcome.
func (m *MockParser) ParseTransactionText(_ context.Context, rawText string) (*service.ParsedTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, rawText)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
