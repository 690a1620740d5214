package dimensions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

// Querier executes a parameterized read-only query and returns ordered rows
// as column-name to value maps. Satisfied by the datasource adapters.
type Querier interface {
	Query(ctx context.Context, sqlText string, args ...any) ([]map[string]any, error)
}

const (
	// maxNameTokens bounds how many tokens of a value participate in the
	// AND-of-LIKE match.
	maxNameTokens = 3
	// candidateWindowDays restricts candidate search to recent records for
	// relevance and index-friendliness.
	candidateWindowDays = 180
	// personOfficeWindowDays is the trailing window used to find the office a
	// person most recently submits from.
	personOfficeWindowDays = 90
)

// connectorTokens are name particles and conjunctions dropped during
// tokenization.
var connectorTokens = map[string]struct{}{
	"de": {}, "del": {}, "la": {}, "las": {}, "los": {}, "el": {},
	"van": {}, "von": {}, "da": {}, "dos": {}, "and": {}, "y": {}, "e": {},
	"of": {}, "for": {},
}

// Tokenize splits a raw value into up to maxNameTokens lowercase name tokens,
// dropping connector particles. An empty result means the value has nothing
// searchable and callers must not run a scan.
func Tokenize(value string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(value)) {
		word = strings.Trim(word, `'".,;:!?`)
		if word == "" {
			continue
		}
		if _, skip := connectorTokens[word]; skip {
			continue
		}
		tokens = append(tokens, word)
		if len(tokens) == maxNameTokens {
			break
		}
	}
	return tokens
}

// Finder runs fuzzy candidate searches against the reporting table.
type Finder struct {
	q          Querier
	table      string
	dateColumn string
	logger     *zap.Logger
	now        func() time.Time
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithFinderClock overrides the clock, used in tests.
func WithFinderClock(now func() time.Time) FinderOption {
	return func(f *Finder) { f.now = now }
}

// NewFinder creates a candidate finder bound to the reporting table.
func NewFinder(q Querier, table, dateColumn string, logger *zap.Logger, opts ...FinderOption) *Finder {
	f := &Finder{
		q:          q,
		table:      table,
		dateColumn: dateColumn,
		logger:     logger.Named("candidates"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindCandidates searches lookupColumn for values matching every token of
// rawValue via case-insensitive substring match, restricted to a recent
// trailing window, ranked by frequency descending then alphabetically.
// All dynamic values are bind parameters.
func (f *Finder) FindCandidates(ctx context.Context, lookupColumn, rawValue string, limit int) ([]models.Candidate, error) {
	tokens := Tokenize(rawValue)
	if len(tokens) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	var sb strings.Builder
	args := make([]any, 0, len(tokens)+2)

	fmt.Fprintf(&sb, "SELECT %s AS name, COUNT(*) AS cnt FROM %s WHERE %s >= ?",
		lookupColumn, f.table, f.dateColumn)
	args = append(args, f.since(candidateWindowDays))

	for _, token := range tokens {
		fmt.Fprintf(&sb, " AND LOWER(%s) LIKE ?", lookupColumn)
		args = append(args, "%"+token+"%")
	}

	fmt.Fprintf(&sb, " GROUP BY %s ORDER BY cnt DESC, name ASC LIMIT ?", lookupColumn)
	args = append(args, limit)

	rows, err := f.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("candidate search on %s failed: %w", lookupColumn, err)
	}

	candidates := make([]models.Candidate, 0, len(rows))
	for _, row := range rows {
		name := asString(row["name"])
		if name == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{Value: name, Count: asInt(row["cnt"])})
	}

	f.logger.Debug("candidate search",
		zap.String("column", lookupColumn),
		zap.Strings("tokens", tokens),
		zap.Int("matches", len(candidates)))

	return candidates, nil
}

// FindPeople is the person variant: it searches the submitter name column of
// the person pseudo-dimension.
func (f *Finder) FindPeople(ctx context.Context, registry *Registry, rawValue string, limit int) ([]models.Candidate, error) {
	return f.FindCandidates(ctx, registry.Person().LookupColumn, rawValue, limit)
}

// TopOfficeForPerson returns the office name the person's recent records most
// frequently carry, or the empty string when the person has no recent
// submissions.
func (f *Finder) TopOfficeForPerson(ctx context.Context, registry *Registry, personValue string) (string, error) {
	tokens := Tokenize(personValue)
	if len(tokens) == 0 {
		return "", nil
	}

	officeDef := registry.Get("office")
	personDef := registry.Person()
	if officeDef == nil || personDef == nil {
		return "", nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(tokens)+1)

	fmt.Fprintf(&sb, "SELECT %s AS name, COUNT(*) AS cnt FROM %s WHERE %s >= ?",
		officeDef.Column, f.table, f.dateColumn)
	args = append(args, f.since(personOfficeWindowDays))

	for _, token := range tokens {
		fmt.Fprintf(&sb, " AND LOWER(%s) LIKE ?", personDef.LookupColumn)
		args = append(args, "%"+token+"%")
	}

	fmt.Fprintf(&sb, " GROUP BY %s ORDER BY cnt DESC, name ASC LIMIT ?", officeDef.Column)
	args = append(args, 1)

	rows, err := f.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return "", fmt.Errorf("office lookup for person failed: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return asString(rows[0]["name"]), nil
}

func (f *Finder) since(days int) time.Time {
	t := f.now().AddDate(0, 0, -days)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
