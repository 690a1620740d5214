// Package sql implements the rewrite pipeline and the whitelist guard every
// generated query must pass before execution.
package sql

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// dateFormatPattern matches the DATE_FORMAT(col, '%Y-%m') idiom LLMs are fond
// of, which strict aggregation-mode engines reject in mixed GROUP BY shapes.
var dateFormatPattern = regexp.MustCompile(`(?i)\b(?:DATE_FORMAT|FORMAT)\(\s*([A-Za-z0-9_.]+)\s*,\s*'%Y-%m'\s*\)`)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	groupByPattern  = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	orderByPattern  = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	limitPattern    = regexp.MustCompile(`(?i)\bLIMIT\b`)
	yearColPattern  = regexp.MustCompile(`(?i)\bYEAR\(\s*([A-Za-z0-9_.]+)\s*\)`)
	monthCallRx     = regexp.MustCompile(`(?i)\bMONTH\(`)
	aggregateRx     = regexp.MustCompile(`(?i)\b(?:COUNT|SUM|AVG|MIN|MAX)\s*\(`)
	fromAndPattern  = regexp.MustCompile(`(?i)\b(FROM\s+[A-Za-z0-9_.\x60\[\]"]+)\s+AND\b`)
	wherePattern    = regexp.MustCompile(`(?i)\bWHERE\b`)
	quotedColBefore = regexp.MustCompile(`'([A-Za-z_][A-Za-z0-9_]*)'(\s*(?:>=|<=|<>|!=|=|<|>|(?i:LIKE)\b))`)
	strayQuoteAfter = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)'(\s*(?:>=|<=|<>|!=|=|<|>|(?i:LIKE)\b))`)
)

// NormalizeText collapses whitespace, strips control and zero-width
// characters, and canonicalizes DATE_FORMAT year-month extraction into a
// YEAR()/MONTH() pair (including inside GROUP BY). Idempotent.
func NormalizeText(sqlText string) string {
	var b strings.Builder
	b.Grow(len(sqlText))
	for _, r := range sqlText {
		switch {
		case r == 0x200B || r == 0x200C || r == 0x200D || r == 0xFEFF:
			// zero-width characters smuggled in by copy-paste
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	out := whitespaceRun.ReplaceAllString(b.String(), " ")
	out = strings.TrimSpace(out)
	out = dateFormatPattern.ReplaceAllString(out, "YEAR($1), MONTH($1)")
	return out
}

// EnsureGrouping appends a GROUP BY on the year/month expressions when the
// query aggregates and extracts year/month but has no GROUP BY of its own.
// A query that already groups is left untouched, so the pass is idempotent.
func EnsureGrouping(sqlText string) string {
	if groupByPattern.MatchString(sqlText) {
		return sqlText
	}
	if !aggregateRx.MatchString(sqlText) {
		return sqlText
	}
	m := yearColPattern.FindStringSubmatch(sqlText)
	if m == nil || !monthCallRx.MatchString(sqlText) {
		return sqlText
	}

	clause := fmt.Sprintf("GROUP BY YEAR(%s), MONTH(%s)", m[1], m[1])
	return insertBeforeTail(sqlText, clause, orderByPattern, limitPattern)
}

// RewritePersonEquality converts strict equality filters on name-like columns
// into case-insensitive substring matches. Used on the repair path where an
// exact name produced zero rows. The submitter column is left alone when the
// question explicitly asks about the intake specialist role, so an intake
// question is never silently widened into a generic submitter match.
func RewritePersonEquality(sqlText, question string, nameColumns []string, submitterColumn string) string {
	intakeQuestion := regexp.MustCompile(`(?i)\bintake\b|especialista`).MatchString(question)

	for _, col := range nameColumns {
		if intakeQuestion && strings.EqualFold(col, submitterColumn) {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(col) + `\s*=\s*'([^']*)'`)
		colName := col
		sqlText = re.ReplaceAllStringFunc(sqlText, func(match string) string {
			sub := re.FindStringSubmatch(match)
			return fmt.Sprintf("LOWER(%s) LIKE '%%%s%%'", colName, strings.ToLower(sub[1]))
		})
	}
	return sqlText
}

// NormalizeWhere repairs malformed WHERE structure produced by the upstream
// proposer: a missing WHERE keyword ("FROM t AND x = 1") and duplicate WHERE
// keywords are both collapsed into a single WHERE...AND... chain. Idempotent.
func NormalizeWhere(sqlText string) string {
	sqlText = fromAndPattern.ReplaceAllString(sqlText, "$1 WHERE")

	locs := wherePattern.FindAllStringIndex(sqlText, -1)
	if len(locs) > 1 {
		var b strings.Builder
		prev := 0
		for i, loc := range locs {
			if i == 0 {
				continue
			}
			b.WriteString(sqlText[prev:loc[0]])
			b.WriteString("AND")
			prev = loc[1]
		}
		b.WriteString(sqlText[prev:])
		sqlText = b.String()
	}
	return sqlText
}

// EnsurePeriodFilter injects a date-range predicate on the primary date
// column when the query has none, so no aggregate ever runs unbounded.
// Handles the no-WHERE, existing-WHERE, and malformed-WHERE structural cases.
func EnsurePeriodFilter(sqlText, dateColumn, whereClause string) string {
	sqlText = NormalizeWhere(sqlText)
	if whereClause == "" {
		return sqlText
	}

	if whereHasDateFilter(sqlText, dateColumn) {
		return sqlText
	}

	return insertCondition(sqlText, whereClause)
}

// whereHasDateFilter reports whether the WHERE clause already constrains the
// date column. Year/month extraction in the SELECT list does not count.
func whereHasDateFilter(sqlText, dateColumn string) bool {
	loc := wherePattern.FindStringIndex(sqlText)
	if loc == nil {
		return false
	}
	region := sqlText[loc[1]:]
	for _, tail := range []*regexp.Regexp{groupByPattern, orderByPattern, limitPattern} {
		if tloc := tail.FindStringIndex(region); tloc != nil {
			region = region[:tloc[0]]
		}
	}

	col := regexp.QuoteMeta(dateColumn)
	colRx := regexp.MustCompile(`(?i)(?:\b` + col + `\s*(?:>=|<=|<|>|=|\bBETWEEN\b)|\b(?:YEAR|MONTH)\(\s*` + col + `\s*\))`)
	return colRx.MatchString(region)
}

// SanitizeTypos fixes the small set of observed malformed tokens: stray quote
// characters wrapped around or trailing a column name in a comparison.
func SanitizeTypos(sqlText string) string {
	sqlText = quotedColBefore.ReplaceAllString(sqlText, "$1$2")
	sqlText = strayQuoteAfter.ReplaceAllString(sqlText, "$1$2")
	return sqlText
}

// insertCondition adds a condition to the WHERE chain, creating the chain if
// needed, immediately before GROUP BY/ORDER BY/LIMIT when present.
func insertCondition(sqlText, condition string) string {
	keyword := "WHERE"
	if wherePattern.MatchString(sqlText) {
		keyword = "AND"
	}
	return insertBeforeTail(sqlText, keyword+" "+condition, groupByPattern, orderByPattern, limitPattern)
}

// insertBeforeTail splices clause in front of the first matching tail keyword
// or appends it at the end.
func insertBeforeTail(sqlText, clause string, tails ...*regexp.Regexp) string {
	idx := len(sqlText)
	for _, re := range tails {
		if loc := re.FindStringIndex(sqlText); loc != nil && loc[0] < idx {
			idx = loc[0]
		}
	}
	head := strings.TrimRight(sqlText[:idx], " ")
	tail := sqlText[idx:]
	if tail == "" {
		return head + " " + clause
	}
	return head + " " + clause + " " + tail
}
