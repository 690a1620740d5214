package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/prompts"
)

const proposerTemperature = 0.1

// SQLProposal is the structured output of one proposal turn.
type SQLProposal struct {
	SQL     string `json:"sql"`
	Comment string `json:"comment"`
}

// Proposer turns a question into a candidate SQL statement. The output is
// untrusted and always goes through the rewrite pipeline and the guard.
type Proposer interface {
	ProposeSQL(ctx context.Context, turn prompts.ProposalContext) (*SQLProposal, error)
}

type proposer struct {
	client LLMClient
	schema prompts.SchemaContext
	logger *zap.Logger
}

// NewProposer builds the proposer for one reporting table schema.
func NewProposer(client LLMClient, schema prompts.SchemaContext, logger *zap.Logger) Proposer {
	return &proposer{client: client, schema: schema, logger: logger}
}

func (p *proposer) ProposeSQL(ctx context.Context, turn prompts.ProposalContext) (*SQLProposal, error) {
	prompt := prompts.BuildSQLProposalPrompt(p.schema, turn)

	raw, err := p.client.GenerateResponse(ctx, prompt, prompts.ProposerSystemPrompt, proposerTemperature)
	if err != nil {
		return nil, fmt.Errorf("sql proposal failed: %w", err)
	}

	proposal, err := ParseJSONResponse[SQLProposal](raw)
	if err != nil {
		// Some models answer with bare SQL despite the instructions.
		if sqlText := extractBareSQL(raw); sqlText != "" {
			return &SQLProposal{SQL: sqlText}, nil
		}
		return nil, fmt.Errorf("sql proposal is not valid JSON: %w", err)
	}
	if strings.TrimSpace(proposal.SQL) == "" {
		return nil, fmt.Errorf("sql proposal is empty")
	}

	p.logger.Debug("sql proposed", zap.String("model", p.client.GetModel()))
	return &proposal, nil
}

// extractBareSQL salvages a response that is a SELECT statement instead of
// the requested JSON envelope, with or without a markdown fence.
func extractBareSQL(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```sql")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) >= 6 && strings.EqualFold(cleaned[:6], "select") {
		return cleaned
	}
	return ""
}
