package datasource

import (
	"fmt"
	"regexp"
	"strings"
)

// rewritePlaceholders converts `?` placeholders into dialect-specific ones
// using the render callback (called with the 1-based position). Question
// marks inside single-quoted literals are left alone.
func rewritePlaceholders(sqlText string, render func(n int) string) string {
	var b strings.Builder
	b.Grow(len(sqlText) + 8)

	inString := false
	n := 0
	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteString(render(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var trailingLimitRx = regexp.MustCompile(`(?i)\s+LIMIT\s+(\S+)\s*$`)
var selectPrefixRx = regexp.MustCompile(`(?i)^\s*SELECT\b`)

// rewriteLimitToTop moves a trailing LIMIT into SQL Server's TOP clause.
// Run after placeholder rewriting so the limit is either a number or a named
// parameter.
func rewriteLimitToTop(sqlText string) string {
	m := trailingLimitRx.FindStringSubmatch(sqlText)
	if m == nil {
		return sqlText
	}
	sqlText = trailingLimitRx.ReplaceAllString(sqlText, "")
	return selectPrefixRx.ReplaceAllString(sqlText, fmt.Sprintf("SELECT TOP (%s)", m[1]))
}
