package prompts

import (
	"fmt"
	"strings"
)

// NarrationContext carries the executed result for the answer narrator.
type NarrationContext struct {
	Question string
	Lang     string
	Columns  []string
	// Rows holds at most the first few result rows, already formatted.
	Rows     []string
	RowCount int
	Truncated bool
}

// NarratorSystemPrompt is the fixed system message for answer narration.
const NarratorSystemPrompt = `You summarize query results for a legal-intake reporting dashboard. ` +
	`Answer in the language of the question, in one or two sentences, using only the numbers provided. ` +
	`Never mention SQL, tables, or columns by their technical names.`

// BuildNarrationPrompt creates the user prompt for narrating one result.
func BuildNarrationPrompt(turn NarrationContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Question\n\n")
	prompt.WriteString(turn.Question + "\n\n")

	prompt.WriteString("# Result\n\n")
	prompt.WriteString(fmt.Sprintf("%d rows. Columns: %s\n\n", turn.RowCount, strings.Join(turn.Columns, ", ")))
	for _, row := range turn.Rows {
		prompt.WriteString(row + "\n")
	}
	if turn.Truncated {
		prompt.WriteString("\n(only the first rows are shown)\n")
	}

	prompt.WriteString("\nSummarize this result for the user.\n")
	return prompt.String()
}
