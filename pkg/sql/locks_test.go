package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripColumnFilter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "leading equality",
			in:   "SELECT * FROM t WHERE submitterName = 'x' AND a = 'b'",
			want: "SELECT * FROM t WHERE a = 'b'",
		},
		{
			name: "trailing equality",
			in:   "SELECT * FROM t WHERE a = 'b' AND submitterName = 'x'",
			want: "SELECT * FROM t WHERE a = 'b'",
		},
		{
			name: "lower like predicate",
			in:   "SELECT * FROM t WHERE a = 'b' AND LOWER(submitterName) LIKE '%x%'",
			want: "SELECT * FROM t WHERE a = 'b'",
		},
		{
			name: "only predicate",
			in:   "SELECT * FROM t WHERE submitterName = 'x'",
			want: "SELECT * FROM t",
		},
		{
			name: "only predicate before group by",
			in:   "SELECT * FROM t WHERE (LOWER(submitterName) LIKE '%x%') GROUP BY a",
			want: "SELECT * FROM t GROUP BY a",
		},
		{
			name: "or group with nested parens",
			in:   "SELECT * FROM t WHERE a = 'b' AND (LOWER(submitterName) LIKE '%x%y%' OR LOWER(submitterName) LIKE '%y%x%')",
			want: "SELECT * FROM t WHERE a = 'b'",
		},
		{
			name: "other columns untouched",
			in:   "SELECT * FROM t WHERE OfficeName = 'Miami'",
			want: "SELECT * FROM t WHERE OfficeName = 'Miami'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripColumnFilter(tt.in, "submitterName"))
		})
	}
}

func TestInjectLockedFiltersPerson(t *testing.T) {
	f := LockedFilter{
		Column: "submitterName",
		Value:  "John Doe",
		Tokens: []string{"john", "doe"},
		Person: true,
	}

	got, err := InjectLockedFilters("SELECT * FROM t WHERE a = 'b'", []LockedFilter{f})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM t WHERE a = 'b' AND (LOWER(submitterName) LIKE '%john%doe%' OR LOWER(submitterName) LIKE '%doe%john%')",
		got)

	// Injecting into its own output strips and re-adds the same clause.
	again, err := InjectLockedFilters(got, []LockedFilter{f})
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestInjectLockedFiltersReplacesProposedFilter(t *testing.T) {
	f := LockedFilter{
		Column: "submitterName",
		Value:  "John Doe",
		Tokens: []string{"john", "doe"},
		Person: true,
	}

	// The proposer guessed an exact match; the lock replaces it.
	got, err := InjectLockedFilters("SELECT * FROM t WHERE submitterName = 'john'", []LockedFilter{f})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM t WHERE (LOWER(submitterName) LIKE '%john%doe%' OR LOWER(submitterName) LIKE '%doe%john%')",
		got)
}

func TestInjectLockedFiltersExact(t *testing.T) {
	f := LockedFilter{Column: "OfficeName", Value: "Miami", Exact: true}

	got, err := InjectLockedFilters("SELECT COUNT(*) FROM t", []LockedFilter{f})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM t WHERE LOWER(OfficeName) LIKE '%miami%'", got)
}

func TestInjectLockedFiltersMultiTokenValue(t *testing.T) {
	f := LockedFilter{Column: "TeamName", Value: "North East Alpha", Tokens: []string{"north", "east", "alpha"}}

	got, err := InjectLockedFilters("SELECT * FROM t", []LockedFilter{f})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM t WHERE (LOWER(TeamName) LIKE '%north%' AND LOWER(TeamName) LIKE '%east%' AND LOWER(TeamName) LIKE '%alpha%')",
		got)
}

func TestInjectLockedFiltersScreensValues(t *testing.T) {
	f := LockedFilter{Column: "OfficeName", Value: "x' OR '1'='1", Exact: true}

	_, err := InjectLockedFilters("SELECT * FROM t", []LockedFilter{f})
	require.Error(t, err)
	var inj *InjectionError
	assert.True(t, errors.As(err, &inj))
	assert.Equal(t, "OfficeName", inj.Column)
}

func TestInjectLockedFiltersSkipsEmptyValue(t *testing.T) {
	got, err := InjectLockedFilters("SELECT * FROM t", []LockedFilter{{Column: "OfficeName"}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t", got)
}

func TestEscapeLiteral(t *testing.T) {
	assert.Equal(t, "o''brien", escapeLiteral("o'brien"))
	assert.Equal(t, "plain", escapeLiteral("plain"))
}
