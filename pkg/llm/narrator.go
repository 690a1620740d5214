package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/casepulse-ai/casepulse-engine/pkg/prompts"
)

const narratorTemperature = 0.4

// Narrator renders an executed result as a short natural-language answer in
// the user's language.
type Narrator interface {
	Narrate(ctx context.Context, turn prompts.NarrationContext) (string, error)
}

type narrator struct {
	client LLMClient
}

func NewNarrator(client LLMClient) Narrator {
	return &narrator{client: client}
}

func (n *narrator) Narrate(ctx context.Context, turn prompts.NarrationContext) (string, error) {
	prompt := prompts.BuildNarrationPrompt(turn)

	answer, err := n.client.GenerateResponse(ctx, prompt, prompts.NarratorSystemPrompt, narratorTemperature)
	if err != nil {
		return "", fmt.Errorf("narration failed: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("narration returned empty text")
	}
	return answer, nil
}
