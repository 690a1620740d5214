package dimensions

import (
	"regexp"
	"strings"
)

// MatchType records how a dimension mention was found.
type MatchType string

const (
	// MatchExplicit means a dimension keyword introduced the value.
	MatchExplicit MatchType = "explicit"
	// MatchFallback means a person-oriented or bare connective pattern matched.
	MatchFallback MatchType = "fallback"
)

// Extracted is a candidate dimension mention found in a message.
type Extracted struct {
	Key       string
	Value     string
	MatchType MatchType
}

// Extractor scans messages for dimension mentions. Extraction priority:
// explicit dimension keywords in catalog order, then person case-lookup verb
// phrases, then a bare "of X"/"de X" connective guarded by the period-phrase
// denylist. Explicit keywords must never be shadowed by the person fallback.
type Extractor struct {
	registry *Registry
	patterns []keywordPattern
}

type keywordPattern struct {
	key string
	re  *regexp.Regexp
}

// personVerbPatterns match phrasings that imply a case lookup for a person.
var personVerbPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:cases|logs|records|files|submissions)\s+(?:of|for|from|by)\s+(.+)$`),
	regexp.MustCompile(`(?i)\bsubmitted\s+by\s+(.+)$`),
	regexp.MustCompile(`(?i)\b(?:casos|registros|expedientes)\s+(?:de|del|para)\s+(.+)$`),
	regexp.MustCompile(`(?i)\benviados?\s+por\s+(.+)$`),
}

// bareConnectivePattern is the weakest person fallback: "of X" / "de X".
var bareConnectivePattern = regexp.MustCompile(`(?i)\b(?:of|for|de|para)\s+([^,.;?!]+)$`)

// periodPhrasePattern rejects captured values that are really time phrases,
// so "cases of last week" never becomes a person named "last week".
var periodPhrasePattern = regexp.MustCompile(`(?i)^(?:the|el|la|los|las|este|esta|last|this|past|ultimo|ultimos|último|últimos|pasado|pasada)?\s*(?:\d+\s*)?(?:today|yesterday|hoy|ayer|weeks?|months?|years?|days?|semanas?|mes(?:es)?|a[nñ]os?|d[ií]as?|trimestre|q[1-4]|20\d\d|enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre|january|february|march|april|may|june|july|august|september|october|november|december)\b`)

// trailingPeriodPattern trims a time phrase hanging off the end of a captured
// value ("john doe this month" -> "john doe").
var trailingPeriodPattern = regexp.MustCompile(`(?i)\s+(?:in|en|of|during|durante)?\s*(?:the|el|la|los|este|esta|last|this|past|ultimo|ultimos|último|últimos)?\s*(?:\d+\s*)?(?:today|yesterday|hoy|ayer|weeks?|months?|years?|days?|semanas?|mes(?:es)?|a[nñ]os?|d[ií]as?|q[1-4]\s*\d{4}|20\d\d)\s*$`)

var trailingNoiseTokens = map[string]struct{}{
	"please": {}, "thanks": {}, "gracias": {}, "favor": {}, "por": {},
	"and": {}, "y": {}, "in": {}, "on": {}, "en": {}, "of": {}, "de": {},
	"del": {}, "for": {}, "para": {}, "the": {},
	// qualifiers left behind once a trailing period phrase is stripped
	"last": {}, "this": {}, "past": {}, "este": {}, "esta": {},
	"ultimo": {}, "ultimos": {}, "último": {}, "últimos": {},
	"pasado": {}, "pasada": {}, "el": {}, "la": {}, "los": {},
}

// NewExtractor builds the keyword patterns from the registry, in catalog
// order with longer keywords first so "office of" wins over "office".
func NewExtractor(registry *Registry) *Extractor {
	e := &Extractor{registry: registry}
	for _, def := range registry.List() {
		if def.Key == PersonKey {
			continue
		}
		for _, lang := range []string{"en", "es"} {
			for _, kw := range def.Keywords[lang] {
				re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\s+([^,.;?!]+)`)
				e.patterns = append(e.patterns, keywordPattern{key: def.Key, re: re})
			}
		}
	}
	return e
}

// Extract returns the first dimension mention found in the message, or nil.
func (e *Extractor) Extract(message, lang string) *Extracted {
	// Stage 1: explicit dimension keywords, catalog order, first match wins.
	for _, p := range e.patterns {
		if m := p.re.FindStringSubmatch(message); m != nil {
			value := cleanValue(m[1])
			if value == "" || periodPhrasePattern.MatchString(value) {
				continue
			}
			return &Extracted{Key: p.key, Value: value, MatchType: MatchExplicit}
		}
	}

	// Stage 2: person-oriented case-lookup verbs.
	for _, re := range personVerbPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			value := cleanValue(m[1])
			if value == "" || periodPhrasePattern.MatchString(value) {
				continue
			}
			return &Extracted{Key: PersonKey, Value: value, MatchType: MatchFallback}
		}
	}

	// Stage 3: bare connective, only when the value cannot be a time phrase.
	if m := bareConnectivePattern.FindStringSubmatch(message); m != nil {
		value := cleanValue(m[1])
		if len(value) >= 2 && !periodPhrasePattern.MatchString(value) {
			return &Extracted{Key: PersonKey, Value: value, MatchType: MatchFallback}
		}
	}

	return nil
}

// cleanValue trims trailing time phrases and noise tokens off a captured
// value. Leading particles stay untouched since they can be part of a name.
func cleanValue(raw string) string {
	value := strings.TrimSpace(raw)

	for {
		prev := value
		value = strings.TrimSpace(trailingPeriodPattern.ReplaceAllString(value, ""))
		value = trimTrailingNoise(value)
		if value == prev {
			break
		}
	}

	return value
}

func trimTrailingNoise(value string) string {
	words := strings.Fields(value)
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		if _, noisy := trailingNoiseTokens[last]; !noisy {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
