// Package prompts builds the model prompts for SQL proposal and answer
// narration.
package prompts

import (
	"fmt"
	"strings"
)

// SchemaContext describes the one reporting table the proposer may query.
type SchemaContext struct {
	Table      string
	DateColumn string
	Columns    []string
	MaxRows    int
}

// ProposalContext carries the per-turn inputs for the SQL proposal prompt.
type ProposalContext struct {
	Question     string
	Lang         string
	PeriodClause string
	LockedHints  []string
	// RepairError is set on the single repair attempt, with the failure from
	// the first execution.
	RepairError string
	FailedSQL   string
}

// ProposerSystemPrompt is the fixed system message for SQL proposal.
const ProposerSystemPrompt = `You are a SQL generator for a legal-intake reporting dashboard. ` +
	`You translate one question (English or Spanish) into exactly one SQL SELECT statement. ` +
	`Respond with JSON only: {"sql": "...", "comment": "..."}. ` +
	`The comment is one short sentence describing what the query returns, in the language of the question.`

// BuildSQLProposalPrompt creates the user prompt for one proposal turn.
func BuildSQLProposalPrompt(schema SchemaContext, turn ProposalContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Task\n\n")
	prompt.WriteString("Write one SQL SELECT statement answering the question below.\n\n")

	prompt.WriteString("# Schema\n\n")
	prompt.WriteString(fmt.Sprintf("The only table you may query is %s. Columns:\n", schema.Table))
	for _, col := range schema.Columns {
		prompt.WriteString(fmt.Sprintf("- %s\n", col))
	}
	prompt.WriteString(fmt.Sprintf("\nThe date column is %s.\n\n", schema.DateColumn))

	prompt.WriteString("# Rules\n\n")
	prompt.WriteString("- SELECT only, single statement, no comments, no JOIN, no subqueries.\n")
	prompt.WriteString(fmt.Sprintf("- Never return more than %d rows.\n", schema.MaxRows))
	prompt.WriteString("- For monthly breakdowns use YEAR(" + schema.DateColumn + ") and MONTH(" + schema.DateColumn + ").\n")
	if turn.PeriodClause != "" {
		prompt.WriteString(fmt.Sprintf("- Restrict to the period: %s\n", turn.PeriodClause))
	}
	for _, hint := range turn.LockedHints {
		prompt.WriteString(fmt.Sprintf("- Active filter: %s\n", hint))
	}
	prompt.WriteString("\n")

	if turn.RepairError != "" {
		prompt.WriteString("# Previous attempt\n\n")
		prompt.WriteString("This query failed:\n\n")
		prompt.WriteString(turn.FailedSQL + "\n\n")
		prompt.WriteString("Error: " + turn.RepairError + "\n\n")
		prompt.WriteString("Write a corrected query.\n\n")
	}

	prompt.WriteString("# Question\n\n")
	prompt.WriteString(turn.Question + "\n")

	return prompt.String()
}
