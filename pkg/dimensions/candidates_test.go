package dimensions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeQuerier records the last query and returns canned rows.
type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	rows     []map[string]any
	err      error
}

func (f *fakeQuerier) Query(ctx context.Context, sqlText string, args ...any) ([]map[string]any, error) {
	f.lastSQL = sqlText
	f.lastArgs = args
	return f.rows, f.err
}

var finderNow = time.Date(2025, time.August, 13, 12, 0, 0, 0, time.UTC)

func newTestFinder(q Querier) *Finder {
	return NewFinder(q, "dmLogReportDashboard", "createdDate", zap.NewNop(),
		WithFinderClock(func() time.Time { return finderNow }))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Maria Lopez", []string{"maria", "lopez"}},
		{"maria de la cruz", []string{"maria", "cruz"}},
		{"Van Der Berg", []string{"der", "berg"}},
		{"John and Jane and Jim and Joe", []string{"john", "jane", "jim"}},
		{"of maria lopez", []string{"maria", "lopez"}},
		{"for ana garcia", []string{"ana", "garcia"}},
		{"de la y", nil},
		{"", nil},
		{"  'O'Brien'  ", []string{"o'brien"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestFindCandidates(t *testing.T) {
	q := &fakeQuerier{rows: []map[string]any{
		{"name": "ana garcia", "cnt": int64(12)},
		{"name": "ana lopez", "cnt": int64(7)},
		{"name": "ana maria soto", "cnt": int64(7)},
	}}
	f := newTestFinder(q)

	got, err := f.FindCandidates(context.Background(), "submitterName", "Ana", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ana garcia", got[0].Value)
	assert.Equal(t, 12, got[0].Count)

	assert.Equal(t,
		"SELECT submitterName AS name, COUNT(*) AS cnt FROM dmLogReportDashboard "+
			"WHERE createdDate >= ? AND LOWER(submitterName) LIKE ? "+
			"GROUP BY submitterName ORDER BY cnt DESC, name ASC LIMIT ?",
		q.lastSQL)

	require.Len(t, q.lastArgs, 3)
	since, ok := q.lastArgs[0].(time.Time)
	require.True(t, ok)
	assert.Equal(t, finderNow.AddDate(0, 0, -candidateWindowDays).Truncate(24*time.Hour), since)
	assert.Equal(t, "%ana%", q.lastArgs[1])
	assert.Equal(t, 5, q.lastArgs[2])
}

func TestFindCandidatesMultiToken(t *testing.T) {
	q := &fakeQuerier{}
	f := newTestFinder(q)

	_, err := f.FindCandidates(context.Background(), "submitterName", "Maria de la Cruz", 5)
	require.NoError(t, err)
	// Connector particles are dropped; both remaining tokens must match.
	assert.Contains(t, q.lastSQL, "LOWER(submitterName) LIKE ? AND LOWER(submitterName) LIKE ?")
	assert.Equal(t, "%maria%", q.lastArgs[1])
	assert.Equal(t, "%cruz%", q.lastArgs[2])
}

func TestFindCandidatesZeroTokens(t *testing.T) {
	q := &fakeQuerier{}
	f := newTestFinder(q)

	got, err := f.FindCandidates(context.Background(), "submitterName", "de la", 5)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, q.lastSQL, "zero tokens must never run a scan")
}

func TestTopOfficeForPerson(t *testing.T) {
	q := &fakeQuerier{rows: []map[string]any{{"name": "Miami", "cnt": int64(40)}}}
	f := newTestFinder(q)
	reg, err := NewRegistry()
	require.NoError(t, err)

	office, err := f.TopOfficeForPerson(context.Background(), reg, "Maria Lopez")
	require.NoError(t, err)
	assert.Equal(t, "Miami", office)
	assert.Contains(t, q.lastSQL, "SELECT OfficeName AS name")
	assert.Contains(t, q.lastSQL, "GROUP BY OfficeName")
}

func TestTopOfficeForPersonNoRecords(t *testing.T) {
	q := &fakeQuerier{}
	f := newTestFinder(q)
	reg, err := NewRegistry()
	require.NoError(t, err)

	office, err := f.TopOfficeForPerson(context.Background(), reg, "Nobody Here")
	require.NoError(t, err)
	assert.Equal(t, "", office)
}
