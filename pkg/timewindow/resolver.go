// Package timewindow resolves natural-language time phrases (English and
// Spanish) into concrete half-open date ranges for the reporting date column.
package timewindow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Window is a resolved time range. Ranges are half-open [Start, End) so that
// end-of-day rows are never truncated. WhereClause is a predicate on the
// resolver's date column ready for insertion into a WHERE chain.
type Window struct {
	Matched     bool
	Start       time.Time
	End         time.Time
	WhereClause string
	Label       string
}

// Resolver parses time phrases against an injectable clock.
type Resolver struct {
	column string
	now    func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock, used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver for the given date column.
func NewResolver(dateColumn string, opts ...Option) *Resolver {
	r := &Resolver{column: dateColumn, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	todayPattern     = regexp.MustCompile(`\b(today|hoy)\b`)
	yesterdayPattern = regexp.MustCompile(`\b(yesterday|ayer)\b`)
	thisWeekPattern  = regexp.MustCompile(`\b(this week|esta semana)\b`)
	lastWeekPattern  = regexp.MustCompile(`\b(last week|(?:la )?semana pasada)\b`)
	thisMonthPattern = regexp.MustCompile(`\b(this month|este mes)\b`)
	lastMonthPattern = regexp.MustCompile(`\b(last month|(?:el )?mes pasado)\b`)
	thisYearPattern  = regexp.MustCompile(`\b(this year|este a[ñn]o)\b`)
	lastYearPattern  = regexp.MustCompile(`\b(last year|(?:el )?a[ñn]o pasado)\b`)
	lastNDaysPattern = regexp.MustCompile(`\b(?:last|past|ultimos?|pasados)\s+(\d{1,3})\s+(?:days?|dias?)\b`)
	lastNMonthsRx    = regexp.MustCompile(`\b(?:last|past|ultimos?|pasados)\s+(\d{1,2})\s+(?:months?|meses)\b`)
	isoRangePattern  = regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})\s*(?:to|a|al|hasta|-)\s*(\d{4}-\d{1,2}-\d{1,2})\b`)
	usRangePattern   = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\s*(?:to|a|al|hasta|-)\s*(\d{1,2}/\d{1,2}/\d{4})\b`)
	quarterPattern   = regexp.MustCompile(`\b(?:q|quarter\s*|trimestre\s*)([1-4])\s*(?:of\s+|de\s+)?(\d{4})\b`)
	bareYearPattern  = regexp.MustCompile(`\b(20\d{2})\b`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

const monthAlternation = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec|enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)`

// monthNamePattern matches any known month name as a whole word.
var monthNamePattern = regexp.MustCompile(`\b` + monthAlternation + `\b`)

// monthYearPattern matches "march 2025" / "marzo de 2025".
var monthYearPattern = regexp.MustCompile(`\b` + monthAlternation + `\s*(?:of\s+|de\s+|del\s+)?(\d{4})\b`)

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

// Resolve parses the first matching time phrase in text. Patterns are tried in
// a fixed priority order and the first match wins; phrases never combine. When
// nothing matches and defaultDays > 0, a trailing defaultDays window is
// returned; otherwise Matched is false and the caller must apply its own
// policy default.
func (r *Resolver) Resolve(text, lang string, defaultDays int) Window {
	normalized := accentReplacer.Replace(strings.ToLower(text))
	now := r.now()
	day := dayStart(now)

	if todayPattern.MatchString(normalized) {
		return r.window(day, day.AddDate(0, 0, 1), pick(lang, "today", "hoy"))
	}
	if yesterdayPattern.MatchString(normalized) {
		return r.window(day.AddDate(0, 0, -1), day, pick(lang, "yesterday", "ayer"))
	}
	if thisWeekPattern.MatchString(normalized) {
		monday := weekStart(day)
		return r.window(monday, monday.AddDate(0, 0, 7), pick(lang, "this week", "esta semana"))
	}
	if lastWeekPattern.MatchString(normalized) {
		monday := weekStart(day)
		return r.window(monday.AddDate(0, 0, -7), monday, pick(lang, "last week", "la semana pasada"))
	}
	if thisMonthPattern.MatchString(normalized) {
		first := monthStart(day)
		return r.window(first, first.AddDate(0, 1, 0), pick(lang, "this month", "este mes"))
	}
	if lastMonthPattern.MatchString(normalized) {
		first := monthStart(day)
		return r.window(first.AddDate(0, -1, 0), first, pick(lang, "last month", "el mes pasado"))
	}
	if thisYearPattern.MatchString(normalized) {
		first := yearStart(day)
		return r.window(first, first.AddDate(1, 0, 0), pick(lang, "this year", "este año"))
	}
	if lastYearPattern.MatchString(normalized) {
		first := yearStart(day)
		return r.window(first.AddDate(-1, 0, 0), first, pick(lang, "last year", "el año pasado"))
	}
	if m := lastNDaysPattern.FindStringSubmatch(normalized); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			return r.window(day.AddDate(0, 0, -n+1), day.AddDate(0, 0, 1),
				pick(lang, fmt.Sprintf("last %d days", n), fmt.Sprintf("últimos %d días", n)))
		}
	}
	if m := lastNMonthsRx.FindStringSubmatch(normalized); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			return r.window(day.AddDate(0, -n, 0), day.AddDate(0, 0, 1),
				pick(lang, fmt.Sprintf("last %d months", n), fmt.Sprintf("últimos %d meses", n)))
		}
	}
	if m := isoRangePattern.FindStringSubmatch(normalized); m != nil {
		start, err1 := parseDate("2006-1-2", m[1], now.Location())
		end, err2 := parseDate("2006-1-2", m[2], now.Location())
		if err1 == nil && err2 == nil && !end.Before(start) {
			return r.window(start, end.AddDate(0, 0, 1), m[1]+" – "+m[2])
		}
	}
	if m := usRangePattern.FindStringSubmatch(normalized); m != nil {
		start, err1 := parseDate("1/2/2006", m[1], now.Location())
		end, err2 := parseDate("1/2/2006", m[2], now.Location())
		if err1 == nil && err2 == nil && !end.Before(start) {
			return r.window(start, end.AddDate(0, 0, 1), m[1]+" – "+m[2])
		}
	}
	if m := quarterPattern.FindStringSubmatch(normalized); m != nil {
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, now.Location())
		return r.window(start, start.AddDate(0, 3, 0), fmt.Sprintf("Q%d %d", q, year))
	}
	if m := monthYearPattern.FindStringSubmatch(normalized); m != nil {
		month := monthNumbers[m[1]]
		year, _ := strconv.Atoi(m[2])
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
		return r.window(start, start.AddDate(0, 1, 0), fmt.Sprintf("%s %d", m[1], year))
	}
	if m := monthNamePattern.FindStringSubmatch(normalized); m != nil {
		month := monthNumbers[m[1]]
		year := now.Year()
		// Bare month names resolve to the most recent past-or-current
		// occurrence: a month later in the calendar than now belongs to the
		// previous year.
		if month > int(now.Month()) {
			year--
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
		return r.window(start, start.AddDate(0, 1, 0), fmt.Sprintf("%s %d", m[1], year))
	}
	if m := bareYearPattern.FindStringSubmatch(normalized); m != nil {
		year, _ := strconv.Atoi(m[1])
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
		return r.window(start, start.AddDate(1, 0, 0), m[1])
	}

	if defaultDays > 0 {
		return r.window(day.AddDate(0, 0, -defaultDays+1), day.AddDate(0, 0, 1),
			pick(lang, fmt.Sprintf("last %d days", defaultDays), fmt.Sprintf("últimos %d días", defaultDays)))
	}

	return Window{Matched: false}
}

// CurrentMonth returns the current calendar month window, the policy default
// for unbounded queries.
func (r *Resolver) CurrentMonth(lang string) Window {
	first := monthStart(dayStart(r.now()))
	return r.window(first, first.AddDate(0, 1, 0), pick(lang, "this month", "este mes"))
}

// PreviousMonth returns the previous calendar month window.
func (r *Resolver) PreviousMonth(lang string) Window {
	first := monthStart(dayStart(r.now()))
	return r.window(first.AddDate(0, -1, 0), first, pick(lang, "last month", "el mes pasado"))
}

func (r *Resolver) window(start, end time.Time, label string) Window {
	return Window{
		Matched: true,
		Start:   start,
		End:     end,
		WhereClause: fmt.Sprintf("%s >= '%s' AND %s < '%s'",
			r.column, start.Format("2006-01-02"), r.column, end.Format("2006-01-02")),
		Label: label,
	}
}

func parseDate(layout, value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(layout, value, loc)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7 // Monday-based weeks
	return day.AddDate(0, 0, -offset)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
}

func yearStart(day time.Time) time.Time {
	return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
}

func pick(lang, en, es string) string {
	if strings.HasPrefix(strings.ToLower(lang), "es") {
		return es
	}
	return en
}
