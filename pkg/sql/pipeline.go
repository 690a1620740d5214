package sql

// Pass is one named rewrite stage. Every pass is idempotent, so running the
// pipeline twice over its own output changes nothing.
type Pass struct {
	Name  string
	Apply func(sqlText string) (string, error)
}

// Input carries the per-turn context the passes need: the original question
// for cue checks, the resolved period predicate, and the session's locked
// filters.
type Input struct {
	Question     string
	PeriodClause string
	Filters      []LockedFilter

	// FixPersonMatch enables the equality-to-fuzzy rewrite. Off on the first
	// attempt, on for the single repair attempt after an empty result.
	FixPersonMatch bool
}

// Pipeline rewrites proposed queries into their canonical safe form before
// the guard sees them. The stage order is fixed and deterministic.
type Pipeline struct {
	dateColumn      string
	submitterColumn string
	nameColumns     []string
}

// NewPipeline configures the rewrite stages for the reporting table's date
// column and its person-name columns.
func NewPipeline(dateColumn, submitterColumn string, nameColumns []string) *Pipeline {
	return &Pipeline{
		dateColumn:      dateColumn,
		submitterColumn: submitterColumn,
		nameColumns:     nameColumns,
	}
}

// Stages returns the ordered pass list for one turn.
func (p *Pipeline) Stages(in Input) []Pass {
	pure := func(fn func(string) string) func(string) (string, error) {
		return func(s string) (string, error) { return fn(s), nil }
	}

	stages := []Pass{
		{Name: "normalize", Apply: pure(NormalizeText)},
		{Name: "ensure_grouping", Apply: pure(EnsureGrouping)},
	}
	if in.FixPersonMatch {
		stages = append(stages, Pass{Name: "person_fuzzy", Apply: pure(func(s string) string {
			return RewritePersonEquality(s, in.Question, p.nameColumns, p.submitterColumn)
		})})
	}
	stages = append(stages,
		Pass{Name: "ensure_period", Apply: pure(func(s string) string {
			return EnsurePeriodFilter(s, p.dateColumn, in.PeriodClause)
		})},
		Pass{Name: "sanitize_typos", Apply: pure(SanitizeTypos)},
		Pass{Name: "inject_locks", Apply: func(s string) (string, error) {
			return InjectLockedFilters(s, in.Filters)
		}},
	)
	return stages
}

// Run applies every stage in order and returns the rewritten query.
func (p *Pipeline) Run(sqlText string, in Input) (string, error) {
	for _, stage := range p.Stages(in) {
		out, err := stage.Apply(sqlText)
		if err != nil {
			return "", err
		}
		sqlText = out
	}
	return sqlText, nil
}
