package dimensions

import (
	"context"
	"regexp"
	"strings"
)

// Resolved is an extracted dimension after column binding and any value
// re-resolution.
type Resolved struct {
	Key    string
	Column string
	Value  string
	// Meta carries resolution detail, e.g. "office_from_person" when an
	// office value was derived from a person's recent records.
	Meta string
}

// officeOfPersonPattern detects the "office of PERSON" phrasing (as opposed
// to "office NAME"), which triggers the person-to-office lookup.
var officeOfPersonPattern = regexp.MustCompile(`(?i)\b(?:office of|oficina de)\s+`)

// ResolveDimension binds an extracted mention to its physical column.
//
// Special case: "office of PERSON" does not carry an office name at all - the
// value is re-resolved to the office the person most frequently submits from
// over a trailing 90-day window, falling back to literal office-name matching
// when that lookup yields nothing. All other dimensions pass through with the
// registry column and a trimmed value.
func ResolveDimension(ctx context.Context, finder *Finder, registry *Registry, extracted *Extracted, message string) (*Resolved, error) {
	if extracted == nil {
		return nil, nil
	}

	def := registry.Get(extracted.Key)
	if def == nil {
		return nil, nil
	}

	value := strings.TrimSpace(extracted.Value)
	if value == "" {
		return nil, nil
	}

	if extracted.Key == "office" && officeOfPersonPattern.MatchString(message) && looksLikePersonName(value) {
		office, err := finder.TopOfficeForPerson(ctx, registry, value)
		if err != nil {
			return nil, err
		}
		if office != "" {
			return &Resolved{
				Key:    "office",
				Column: def.Column,
				Value:  office,
				Meta:   "office_from_person",
			}, nil
		}
		// No recent records for that person; treat the value as a literal
		// office name after all.
	}

	return &Resolved{Key: def.Key, Column: def.Column, Value: value}, nil
}

// looksLikePersonName returns true for multi-token values, the shape of a
// person reference rather than a site name.
func looksLikePersonName(value string) bool {
	return len(strings.Fields(value)) >= 2
}
