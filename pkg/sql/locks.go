package sql

import (
	"fmt"
	"regexp"
	"strings"
)

// LockedFilter is a conversation-level filter that must constrain every query
// in the session until cleared. Tokens are the normalized name tokens for
// fuzzy matching; callers tokenize with the same rules the candidate search
// uses so both sides agree on what a match means.
type LockedFilter struct {
	Column string
	Value  string
	Tokens []string
	Exact  bool
	Person bool
}

// condition renders the filter as a SQL predicate. Values are screened for
// injection and quote-escaped before embedding; the guard still sees the
// result afterwards.
func (f LockedFilter) condition() string {
	switch {
	case f.Exact || len(f.Tokens) == 0:
		return fmt.Sprintf("LOWER(%s) LIKE '%%%s%%'", f.Column, escapeLiteral(strings.ToLower(f.Value)))
	case f.Person && len(f.Tokens) >= 2:
		// Names come in both "first last" and "last, first" order.
		a, b := escapeLiteral(f.Tokens[0]), escapeLiteral(f.Tokens[1])
		return fmt.Sprintf("(LOWER(%s) LIKE '%%%s%%%s%%' OR LOWER(%s) LIKE '%%%s%%%s%%')",
			f.Column, a, b, f.Column, b, a)
	case len(f.Tokens) == 1:
		return fmt.Sprintf("LOWER(%s) LIKE '%%%s%%'", f.Column, escapeLiteral(f.Tokens[0]))
	default:
		parts := make([]string, len(f.Tokens))
		for i, tok := range f.Tokens {
			parts[i] = fmt.Sprintf("LOWER(%s) LIKE '%%%s%%'", f.Column, escapeLiteral(tok))
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	}
}

// StripColumnFilter removes every predicate on column from the WHERE chain,
// leaving the rest of the chain intact. Handles plain comparisons, LOWER()
// wrapping, and parenthesized groups that mention the column. Injection
// strips before adding, which is what makes re-running the pipeline a no-op.
func StripColumnFilter(sqlText, column string) string {
	col := regexp.QuoteMeta(column)
	colRx := regexp.MustCompile(`(?i)\b` + col + `\b`)

	patterns := []*regexp.Regexp{
		// trailing simple predicate
		regexp.MustCompile(`(?i)\s+(?:AND|OR)\s+(?:LOWER\(\s*)?\b` + col + `\b\s*\)?\s*(?:NOT\s+)?(?:=|<>|!=|LIKE)\s*(?:LOWER\(\s*)?'[^']*'\s*\)?`),
		// leading simple predicate
		regexp.MustCompile(`(?i)(\bWHERE\s+)(?:LOWER\(\s*)?\b` + col + `\b\s*\)?\s*(?:NOT\s+)?(?:=|<>|!=|LIKE)\s*(?:LOWER\(\s*)?'[^']*'\s*\)?(?:\s+(?:AND|OR)\s+)?`),
	}

	for i := 0; i < 5; i++ {
		prev := sqlText
		sqlText = stripParenGroups(sqlText, colRx)
		for _, re := range patterns {
			sqlText = re.ReplaceAllString(sqlText, "$1")
		}
		sqlText = cleanupWhere(sqlText)
		if sqlText == prev {
			break
		}
	}
	return sqlText
}

var parenGroupConnRx = regexp.MustCompile(`(?i)\b(WHERE|AND|OR)\s+\(`)

// stripParenGroups removes parenthesized WHERE-chain groups that mention the
// column. Groups nest (LOWER calls, OR alternatives), so a balanced scan is
// needed rather than a regex.
func stripParenGroups(sqlText string, colRx *regexp.Regexp) string {
	for {
		removed := false
		for _, m := range parenGroupConnRx.FindAllStringSubmatchIndex(sqlText, -1) {
			open := m[1] - 1
			end := matchingParen(sqlText, open)
			if end < 0 || !colRx.MatchString(sqlText[open:end+1]) {
				continue
			}
			conn := strings.ToUpper(sqlText[m[2]:m[3]])
			if conn == "WHERE" {
				sqlText = sqlText[:m[3]] + " " + sqlText[end+1:]
			} else {
				sqlText = sqlText[:m[0]] + " " + sqlText[end+1:]
			}
			removed = true
			break
		}
		if !removed {
			return sqlText
		}
	}
}

// matchingParen returns the index of the parenthesis closing the one at open,
// ignoring parens inside single-quoted literals, or -1 when unbalanced.
func matchingParen(sqlText string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(sqlText); i++ {
		switch sqlText[i] {
		case '\'':
			inString = !inString
		case '(':
			if !inString {
				depth++
			}
		case ')':
			if !inString {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

var (
	whereConnectorRx = regexp.MustCompile(`(?i)\bWHERE\s+(?:AND|OR)\b`)
	doubleAndRx      = regexp.MustCompile(`(?i)\bAND\s+AND\b`)
	emptyWhereTailRx = regexp.MustCompile(`(?i)\bWHERE\s*((?:GROUP\s+BY|ORDER\s+BY|LIMIT)\b)`)
	emptyWhereEndRx  = regexp.MustCompile(`(?i)\bWHERE\s*$`)
)

// cleanupWhere repairs connectors left dangling by predicate removal.
func cleanupWhere(sqlText string) string {
	for i := 0; i < 5; i++ {
		prev := sqlText
		sqlText = whereConnectorRx.ReplaceAllString(sqlText, "WHERE")
		sqlText = doubleAndRx.ReplaceAllString(sqlText, "AND")
		sqlText = emptyWhereTailRx.ReplaceAllString(sqlText, "$1")
		sqlText = emptyWhereEndRx.ReplaceAllString(sqlText, "")
		if sqlText == prev {
			break
		}
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(sqlText, " "))
}

// InjectLockedFilters replaces any existing predicate on each locked column
// with the locked condition. Values are screened with the SQLi detector
// before being embedded as literals.
func InjectLockedFilters(sqlText string, filters []LockedFilter) (string, error) {
	for _, f := range filters {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		if err := screenValue(f.Column, f.Value); err != nil {
			return "", err
		}
		for _, tok := range f.Tokens {
			if err := screenValue(f.Column, tok); err != nil {
				return "", err
			}
		}
		sqlText = StripColumnFilter(sqlText, f.Column)
		sqlText = insertCondition(sqlText, f.condition())
	}
	return sqlText, nil
}
