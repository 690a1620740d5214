// Package llm provides the model provider clients behind the SQL proposer
// and the answer narrator.
package llm

import (
	"context"
)

// LLMClient is the provider-neutral chat completion interface. Use it for
// dependency injection so tests can run against the mock.
type LLMClient interface {
	// GenerateResponse generates a single chat completion.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

var (
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*MockClient)(nil)
)
