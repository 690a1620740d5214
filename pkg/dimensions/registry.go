// Package dimensions implements the dimension catalog, message extraction,
// resolution, and fuzzy candidate search for disambiguation.
package dimensions

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// PersonKey is the key of the person pseudo-dimension.
const PersonKey = "person"

// PickType controls how disambiguation options are rendered.
type PickType string

const (
	PickValue  PickType = "value"
	PickPerson PickType = "person"
)

// Definition describes one filterable dimension. Definitions are immutable
// after load.
type Definition struct {
	Key            string              `yaml:"key"`
	Column         string              `yaml:"column"`
	FallbackColumn string              `yaml:"fallback_column,omitempty"`
	LookupColumn   string              `yaml:"lookup_column"`
	PickType       PickType            `yaml:"pick_type"`
	Labels         map[string]string   `yaml:"labels"`
	Keywords       map[string][]string `yaml:"keywords"`
}

// Label returns the localized label for prompts, falling back to English.
func (d *Definition) Label(lang string) string {
	if l, ok := d.Labels[langKey(lang)]; ok {
		return l
	}
	return d.Labels["en"]
}

// Registry is the static catalog of allowed dimensions, loaded once at
// process start and read-only thereafter.
type Registry struct {
	defs     []Definition
	byKey    map[string]*Definition
	byColumn map[string]*Definition
}

type catalogFile struct {
	Dimensions []Definition `yaml:"dimensions"`
}

// NewRegistry loads the embedded dimension catalog.
func NewRegistry() (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dimension catalog: %w", err)
	}
	if len(file.Dimensions) == 0 {
		return nil, fmt.Errorf("dimension catalog is empty")
	}

	r := &Registry{
		defs:     file.Dimensions,
		byKey:    make(map[string]*Definition, len(file.Dimensions)),
		byColumn: make(map[string]*Definition, len(file.Dimensions)),
	}
	for i := range r.defs {
		def := &r.defs[i]
		if def.Key == "" || def.Column == "" {
			return nil, fmt.Errorf("dimension catalog entry %d is missing key or column", i)
		}
		if _, dup := r.byKey[def.Key]; dup {
			return nil, fmt.Errorf("duplicate dimension key %q", def.Key)
		}
		r.byKey[def.Key] = def
		r.byColumn[strings.ToLower(def.Column)] = def
	}

	if _, ok := r.byKey[PersonKey]; !ok {
		return nil, fmt.Errorf("dimension catalog must define the %q pseudo-dimension", PersonKey)
	}

	return r, nil
}

// Get returns the definition for a key, or nil.
func (r *Registry) Get(key string) *Definition {
	return r.byKey[key]
}

// List returns all definitions in catalog order.
func (r *Registry) List() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// KeyFromColumn maps a physical column name back to its dimension key.
// Returns the empty string if the column is not a dimension column.
func (r *Registry) KeyFromColumn(column string) string {
	if def, ok := r.byColumn[strings.ToLower(column)]; ok {
		return def.Key
	}
	return ""
}

// PersonColumns returns every column that holds a person name, including
// fallback columns. Used to scope the equality-to-fuzzy SQL rewrite.
func (r *Registry) PersonColumns() []string {
	var columns []string
	for i := range r.defs {
		def := &r.defs[i]
		if def.PickType != PickPerson {
			continue
		}
		columns = append(columns, def.Column)
		if def.FallbackColumn != "" {
			columns = append(columns, def.FallbackColumn)
		}
	}
	return columns
}

// Person returns the person pseudo-dimension definition.
func (r *Registry) Person() *Definition {
	return r.byKey[PersonKey]
}

func langKey(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "es") {
		return "es"
	}
	return "en"
}
