package llm

import (
	"context"
	"sync"
)

// MockGenerator is a test double for SQLGenerator. Set GenerateSQLFunc for
// custom behavior, or leave it nil to replay queued Responses in order.
type MockGenerator struct {
	GenerateSQLFunc func(ctx context.Context, question, schemaContext string) (string, error)
	Responses       []string
	Model           string

	mu    sync.Mutex
	calls int

	// Questions records the questions passed to GenerateSQL, in order.
	Questions []string
}

var _ SQLGenerator = (*MockGenerator)(nil)

func (m *MockGenerator) GenerateSQL(ctx context.Context, question, schemaContext string) (string, error) {
	m.mu.Lock()
	m.Questions = append(m.Questions, question)
	call := m.calls
	m.calls++
	m.mu.Unlock()

	if m.GenerateSQLFunc != nil {
		return m.GenerateSQLFunc(ctx, question, schemaContext)
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if call >= len(m.Responses) {
		call = len(m.Responses) - 1
	}
	return m.Responses[call], nil
}

func (m *MockGenerator) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// CallCount returns how many times GenerateSQL was invoked.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
