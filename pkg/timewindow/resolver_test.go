package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Wednesday in mid-August 2025.
var fixedNow = time.Date(2025, time.August, 13, 15, 30, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return NewResolver("createdDate", WithClock(func() time.Time { return fixedNow }))
}

func TestResolvePriorityOrder(t *testing.T) {
	r := newTestResolver()

	// "today" must beat the bare year even when both appear.
	w := r.Resolve("cases today in 2024", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, "today", w.Label)
	assert.Equal(t, time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), w.End)
}

func TestResolveNamedRanges(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		text  string
		lang  string
		label string
		start time.Time
		end   time.Time
	}{
		{"show me yesterday", "en", "yesterday",
			time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)},
		{"casos de hoy", "es", "hoy",
			time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)},
		{"this week", "en", "this week",
			time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)},
		{"la semana pasada", "es", "la semana pasada",
			time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC)},
		{"cases this month", "en", "this month",
			time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"el mes pasado", "es", "el mes pasado",
			time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"this year", "en", "this year",
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"el año pasado", "es", "el año pasado",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			w := r.Resolve(tt.text, tt.lang, 0)
			require.True(t, w.Matched)
			assert.Equal(t, tt.label, w.Label)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
		})
	}
}

func TestResolveRelativeCounts(t *testing.T) {
	r := newTestResolver()

	w := r.Resolve("dropped last 7 days by office", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, "last 7 days", w.Label)
	assert.Equal(t, time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), w.End)

	w = r.Resolve("últimos 3 meses", "es", 0)
	require.True(t, w.Matched)
	assert.Equal(t, "últimos 3 meses", w.Label)
	assert.Equal(t, time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestResolveExplicitRanges(t *testing.T) {
	r := newTestResolver()

	w := r.Resolve("from 2024-01-15 to 2024-02-01", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), w.Start)
	// End date is inclusive in the phrase, exclusive in the window.
	assert.Equal(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), w.End)

	w = r.Resolve("3/1/2024 to 3/15/2024", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), w.End)
}

func TestResolveQuarter(t *testing.T) {
	r := newTestResolver()

	w := r.Resolve("numbers for Q1 2025", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, "Q1 2025", w.Label)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), w.End)
}

func TestResolveMonthForms(t *testing.T) {
	r := newTestResolver()

	t.Run("month plus year", func(t *testing.T) {
		w := r.Resolve("march 2025", "en", 0)
		require.True(t, w.Matched)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), w.Start)
		assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), w.End)
	})

	t.Run("bare past month stays in current year", func(t *testing.T) {
		w := r.Resolve("casos de marzo", "es", 0)
		require.True(t, w.Matched)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), w.Start)
	})

	t.Run("bare future month rolls to previous year", func(t *testing.T) {
		// November is later than the fixed August clock.
		w := r.Resolve("cases in november", "en", 0)
		require.True(t, w.Matched)
		assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), w.Start)
	})
}

func TestResolveBareYear(t *testing.T) {
	r := newTestResolver()
	w := r.Resolve("everything in 2024", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, "2024", w.Label)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.End)
}

func TestResolveFallback(t *testing.T) {
	r := newTestResolver()

	t.Run("no match without default", func(t *testing.T) {
		w := r.Resolve("cases of john doe", "en", 0)
		assert.False(t, w.Matched)
	})

	t.Run("default days applied", func(t *testing.T) {
		w := r.Resolve("cases of john doe", "en", 30)
		require.True(t, w.Matched)
		assert.Equal(t, "last 30 days", w.Label)
		assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), w.Start)
	})
}

func TestWhereClauseShape(t *testing.T) {
	r := newTestResolver()
	w := r.Resolve("this month", "en", 0)
	require.True(t, w.Matched)
	assert.Equal(t, "createdDate >= '2025-08-01' AND createdDate < '2025-09-01'", w.WhereClause)
}

func TestPolicyDefaults(t *testing.T) {
	r := newTestResolver()

	cur := r.CurrentMonth("en")
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), cur.Start)
	assert.Equal(t, "this month", cur.Label)

	prev := r.PreviousMonth("es")
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), prev.End)
	assert.Equal(t, "el mes pasado", prev.Label)
}
