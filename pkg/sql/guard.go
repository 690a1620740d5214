package sql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RejectedQueryError is returned when a query fails the whitelist guard. The
// reason is safe to log and to show in debug responses.
type RejectedQueryError struct {
	Reason string
}

func (e *RejectedQueryError) Error() string {
	return "query rejected: " + e.Reason
}

func reject(format string, args ...any) error {
	return &RejectedQueryError{Reason: fmt.Sprintf(format, args...)}
}

var (
	selectPrefixRx = regexp.MustCompile(`(?i)^select\b`)
	fromRx         = regexp.MustCompile(`(?i)\bfrom\b`)
	fromTableRx    = regexp.MustCompile("(?i)\\bfrom\\s+([A-Za-z0-9_.\\[\\]\"`]+)")
	joinRx         = regexp.MustCompile(`(?i)\bjoin\b`)
	setOpRx        = regexp.MustCompile(`(?i)\b(union|intersect|except|with|into)\b`)
	limitValueRx   = regexp.MustCompile(`(?i)\blimit\s+(\S+)\s*$`)

	// forbiddenKeywordRx covers mutation, DDL, session control, and the
	// system catalogs. Matched as whole words with string literals masked.
	forbiddenKeywordRx = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate|create|replace|rename|merge|grant|revoke|set|declare|prepare|execute|exec|deallocate|call|handler|shutdown|load_file|outfile|dumpfile|sleep|benchmark|waitfor|openrowset|xp_cmdshell|information_schema|performance_schema|pg_catalog|sys|sysobjects|mysql)\b`)
)

// Guard validates a candidate query against the single-table whitelist
// policy. Everything the guard sees has already been through the rewrite
// pipeline, so structural fixes are not its job; it only accepts or rejects,
// plus the one normalization it owns, the LIMIT policy.
type Guard struct {
	table    string
	maxLimit int
}

// NewGuard builds a guard that admits read-only queries against a single
// table, capped at maxLimit rows for non-aggregated results.
func NewGuard(table string, maxLimit int) *Guard {
	return &Guard{table: table, maxLimit: maxLimit}
}

// Validate checks sqlText against every guard rule and returns the query in
// its final executable form. The returned query differs from the input only
// by trailing-semicolon removal and LIMIT normalization.
func (g *Guard) Validate(sqlText string) (string, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return "", reject("empty query")
	}

	sqlText = stripTrailingSemicolon(sqlText)
	if hasSemicolonOutsideStrings(sqlText) {
		return "", reject("multiple statements are not allowed")
	}

	if !selectPrefixRx.MatchString(sqlText) {
		return "", reject("only SELECT statements are allowed")
	}

	masked := maskStringLiterals(sqlText)

	for _, marker := range []string{"--", "/*", "*/", "#"} {
		if strings.Contains(masked, marker) {
			return "", reject("comment markers are not allowed")
		}
	}

	if err := g.checkTables(masked); err != nil {
		return "", err
	}

	if joinRx.MatchString(masked) {
		return "", reject("JOIN is not allowed")
	}
	if m := setOpRx.FindStringSubmatch(masked); m != nil {
		return "", reject("%s is not allowed", strings.ToUpper(m[1]))
	}

	if m := forbiddenKeywordRx.FindStringSubmatch(masked); m != nil {
		return "", reject("forbidden keyword %q", strings.ToLower(m[1]))
	}

	return g.applyLimitPolicy(sqlText, masked)
}

// checkTables requires exactly one FROM clause naming the allowed table.
func (g *Guard) checkTables(masked string) error {
	froms := fromRx.FindAllString(masked, -1)
	switch {
	case len(froms) == 0:
		return reject("query has no FROM clause")
	case len(froms) > 1:
		return reject("subqueries and multiple FROM clauses are not allowed")
	}

	m := fromTableRx.FindStringSubmatch(masked)
	if m == nil {
		return reject("could not identify the queried table")
	}
	table := normalizeTableName(m[1])
	if !strings.EqualFold(table, g.table) {
		return reject("table %q is not allowed", table)
	}
	return nil
}

// applyLimitPolicy enforces the aggregate/LIMIT exclusivity rule: grouped or
// aggregated queries return few rows and must not carry a LIMIT, everything
// else must carry one in [1, maxLimit], appended when missing.
func (g *Guard) applyLimitPolicy(sqlText, masked string) (string, error) {
	aggregated := groupByPattern.MatchString(masked) || aggregateRx.MatchString(masked)
	limitMatch := limitValueRx.FindStringSubmatch(masked)
	if limitMatch == nil && limitPattern.MatchString(masked) {
		return "", reject("LIMIT must be the final clause with a single value")
	}

	if aggregated {
		if limitMatch != nil {
			return "", reject("LIMIT is not allowed on aggregated queries")
		}
		return sqlText, nil
	}

	if limitMatch == nil {
		return fmt.Sprintf("%s LIMIT %d", sqlText, g.maxLimit), nil
	}

	n, err := strconv.Atoi(limitMatch[1])
	if err != nil {
		return "", reject("malformed LIMIT value %q", limitMatch[1])
	}
	if n < 1 || n > g.maxLimit {
		return "", reject("LIMIT must be between 1 and %d", g.maxLimit)
	}
	return sqlText, nil
}

// maskStringLiterals blanks the contents of single-quoted literals so keyword
// scans cannot be fooled by values like 'union station'. Quote characters are
// kept so offsets and structure stay stable.
func maskStringLiterals(sqlText string) string {
	out := []rune(sqlText)
	inString := false
	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == '\'':
			inString = !inString
		case inString:
			out[i] = ' '
		}
	}
	return string(out)
}

func normalizeTableName(raw string) string {
	raw = strings.Trim(raw, "`\"[]")
	if idx := strings.LastIndexByte(raw, '.'); idx >= 0 {
		raw = raw[idx+1:]
	}
	return strings.Trim(raw, "`\"[]")
}

// hasSemicolonOutsideStrings reports any statement separator outside string
// literals. Doubled quotes ('') flip the state twice, which keeps the scan
// correct for the SQL standard escape.
func hasSemicolonOutsideStrings(sqlText string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prev := rune(0)

	for _, char := range sqlText {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = char
	}

	return false
}

func stripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	for strings.HasSuffix(sqlText, ";") {
		sqlText = strings.TrimSuffix(sqlText, ";")
		sqlText = strings.TrimRight(sqlText, " \t\n\r")
	}
	return sqlText
}
