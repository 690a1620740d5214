package dimensions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDimensionPassthrough(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	q := &fakeQuerier{}
	finder := newTestFinder(q)

	extracted := &Extracted{Key: "team", Value: "  Alpha ", MatchType: MatchExplicit}
	got, err := ResolveDimension(context.Background(), finder, reg, extracted, "team Alpha")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "team", got.Key)
	assert.Equal(t, "TeamName", got.Column)
	assert.Equal(t, "Alpha", got.Value)
	assert.Empty(t, got.Meta)
	assert.Empty(t, q.lastSQL, "plain dimensions must not hit the warehouse")
}

func TestResolveDimensionOfficeOfPerson(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	q := &fakeQuerier{rows: []map[string]any{{"name": "Miami", "cnt": int64(31)}}}
	finder := newTestFinder(q)

	extracted := &Extracted{Key: "office", Value: "Maria Lopez", MatchType: MatchExplicit}
	got, err := ResolveDimension(context.Background(), finder, reg, extracted, "office of Maria Lopez")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "office", got.Key)
	assert.Equal(t, "OfficeName", got.Column)
	// The office value is the person's top office, never the person's name.
	assert.Equal(t, "Miami", got.Value)
	assert.Equal(t, "office_from_person", got.Meta)
}

func TestResolveDimensionOfficeOfPersonFallsBackToLiteral(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	q := &fakeQuerier{} // no rows: person has no recent submissions
	finder := newTestFinder(q)

	extracted := &Extracted{Key: "office", Value: "Maria Lopez", MatchType: MatchExplicit}
	got, err := ResolveDimension(context.Background(), finder, reg, extracted, "office of Maria Lopez")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Maria Lopez", got.Value)
	assert.Empty(t, got.Meta)
}

func TestResolveDimensionOfficeLiteralName(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	q := &fakeQuerier{}
	finder := newTestFinder(q)

	// "office Miami" is not the "office of PERSON" phrasing; single-token
	// values are site names.
	extracted := &Extracted{Key: "office", Value: "Miami", MatchType: MatchExplicit}
	got, err := ResolveDimension(context.Background(), finder, reg, extracted, "cases for office Miami")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Miami", got.Value)
	assert.Empty(t, q.lastSQL)
}

func TestResolveDimensionNilInput(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	finder := newTestFinder(&fakeQuerier{})

	got, err := ResolveDimension(context.Background(), finder, reg, nil, "anything")
	require.NoError(t, err)
	assert.Nil(t, got)
}
