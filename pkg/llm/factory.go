package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/config"
)

// NewFromConfig builds the provider client selected by configuration.
func NewFromConfig(cfg config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, logger), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
