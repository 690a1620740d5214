package llm

import (
	"context"
)

// MockClient is a test double for LLMClient. Set GenerateResponseFunc to
// script responses; unset functions return zero values.
type MockClient struct {
	GenerateResponseFunc func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)
	Model                string

	// Calls records every prompt for assertions.
	Calls []string
}

func (m *MockClient) GenerateResponse(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock"
	}
	return m.Model
}
