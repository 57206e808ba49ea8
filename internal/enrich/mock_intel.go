package enrich

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/model"
	"fintrack/internal/service"
)

// MockIntelligence is a test implementation of the CardIntelligence
// interface. It returns deterministic results keyed by bank name and can be
// gated so tests control exactly when a lookup resolves.
type MockIntelligence struct {
	results map[string]*service.CardIntel
	errs    map[string]error
	gate    chan struct{}
	calls   []MockIntelCall
	mu      sync.Mutex
}

// MockIntelCall records one enrichment request.
type MockIntelCall struct {
	BankName    string
	VariantName string
}

// NewMockIntelligence creates a mock with no gate: lookups resolve
// immediately.
func NewMockIntelligence() *MockIntelligence {
	return &MockIntelligence{
		results: make(map[string]*service.CardIntel),
		errs:    make(map[string]error),
	}
}

// SetResult configures the intel returned for a bank name.
func (m *MockIntelligence) SetResult(bankName string, intel *service.CardIntel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[bankName] = intel
}

// SetError configures a bank name to fail enrichment.
func (m *MockIntelligence) SetError(bankName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[bankName] = err
}

// Gate makes lookups block until Release is called once per lookup.
func (m *MockIntelligence) Gate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release unblocks one gated lookup.
func (m *MockIntelligence) Release() {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		gate <- struct{}{}
	}
}

// Calls returns a copy of every recorded request.
func (m *MockIntelligence) Calls() []MockIntelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockIntelCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// FetchCardIntelligence records the call and returns the configured result,
// defaulting to a small benefits-only payload.
func (m *MockIntelligence) FetchCardIntelligence(ctx context.Context, bankName, variantName string) (*service.CardIntel, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockIntelCall{BankName: bankName, VariantName: variantName})
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.errs[bankName]; ok {
		return nil, err
	}
	if intel, ok := m.results[bankName]; ok {
		return intel, nil
	}
	return &service.CardIntel{
		Benefits: []string{fmt.Sprintf("%s %s placeholder benefit", bankName, variantName)},
		Milestones: []service.MilestoneIntel{
			{Label: "Annual spend", Target: 100000, Reward: "Fee waiver"},
		},
		Sources: []model.IntelSource{
			{Title: bankName, URI: "https://example.com/" + bankName},
		},
	}, nil
}
