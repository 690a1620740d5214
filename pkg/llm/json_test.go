package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"sql": "SELECT 1"}`,
			want: `{"sql": "SELECT 1"}`,
		},
		{
			name: "markdown fence",
			in:   "```json\n{\"sql\": \"SELECT 1\"}\n```",
			want: `{"sql": "SELECT 1"}`,
		},
		{
			name: "surrounding prose",
			in:   `Here you go: {"sql": "SELECT 1", "comment": "one"} hope that helps`,
			want: `{"sql": "SELECT 1", "comment": "one"}`,
		},
		{
			name: "nested braces in strings",
			in:   `{"comment": "uses {braces} and \"quotes\"", "sql": "SELECT 1"}`,
			want: `{"comment": "uses {braces} and \"quotes\"", "sql": "SELECT 1"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("SELECT * FROM t")
	assert.Error(t, err)
}

func TestParseJSONResponse(t *testing.T) {
	got, err := ParseJSONResponse[SQLProposal]("```json\n{\"sql\": \"SELECT 1\", \"comment\": \"one row\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got.SQL)
	assert.Equal(t, "one row", got.Comment)
}
