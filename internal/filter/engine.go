package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"yamo/treasury/internal/apperror"
	"yamo/treasury/internal/fields"
	"yamo/treasury/internal/sections"

	"github.com/shopspring/decimal"
)

// Option configures Compile.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used by period facets.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Aggregate summarises a filtered list. Total counts the section before facets and query
// are applied, Filtered and Sums describe the filtered list.
type Aggregate struct {
	Total    int                        `json:"total"`
	Filtered int                        `json:"filtered"`
	Primary  string                     `json:"primary,omitempty"`
	Sums     map[string]decimal.Decimal `json:"sums"`
}

// Sum returns the sum of the primary field, zero when the section sums nothing.
func (a Aggregate) Sum() decimal.Decimal {
	return a.Sums[a.Primary]
}

// Result is a filtered list with the aggregate computed from it.
type Result[T any] struct {
	Items     []T
	Aggregate Aggregate
}

type sumField[T any] struct {
	name string
	get  fields.Accessor[T]
}

// Engine is a section compiled against the schema of its entity type.
type Engine[T any] struct {
	section     sections.Section
	scope       Classifier[T]
	scopeValue  string
	classifiers map[string]Classifier[T]
	search      []fields.Accessor[T]
	sums        []sumField[T]
	columns     []fields.Field[T]
	facetFields map[string]fields.Accessor[T]
}

// Compile resolves every field named by section against schema and builds one classifier
// per facet.
func Compile[T any](section sections.Section, schema fields.Schema[T], opts ...Option) (*Engine[T], error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if schema.Resource() != section.Resource {
		return nil, &apperror.ConfigError{
			Section: section.Name,
			Field:   "resource",
			Reason:  fmt.Sprintf("schema describes '%s', section lists '%s'", schema.Resource(), section.Resource),
		}
	}

	lookup := func(facet, name string) (fields.Field[T], error) {
		f, ok := schema.Lookup(name)
		if !ok {
			return f, &apperror.ConfigError{Section: section.Name, Facet: facet, Field: name, Reason: "unknown field"}
		}
		return f, nil
	}

	e := &Engine[T]{
		section:     section,
		classifiers: make(map[string]Classifier[T], len(section.Facets)),
		facetFields: make(map[string]fields.Accessor[T], len(section.Facets)),
	}

	if section.Scope != nil {
		f, err := lookup("", section.Scope.Field)
		if err != nil {
			return nil, err
		}
		e.scope = Equals(f.Get)
		e.scopeValue = section.Scope.Value
	}
	for _, name := range section.SearchFields {
		f, err := lookup("", name)
		if err != nil {
			return nil, err
		}
		e.search = append(e.search, f.Get)
	}
	for _, name := range section.SumFields {
		f, err := lookup("", name)
		if err != nil {
			return nil, err
		}
		e.sums = append(e.sums, sumField[T]{name: name, get: f.Get})
	}
	for _, c := range section.Columns {
		f, err := lookup("", c.Field)
		if err != nil {
			return nil, err
		}
		e.columns = append(e.columns, f)
	}

	for _, facet := range section.Facets {
		f, err := lookup(facet.Name, facet.Field)
		if err != nil {
			return nil, err
		}
		e.facetFields[facet.Name] = f.Get

		switch facet.Kind {
		case sections.FacetEquals:
			e.classifiers[facet.Name] = Equals(f.Get)
		case sections.FacetSign:
			e.classifiers[facet.Name] = Sign(f.Get, facet.SignLabels())
		case sections.FacetRange:
			c, err := Range(f.Get, facet.Buckets)
			if err != nil {
				return nil, &apperror.ConfigError{Section: section.Name, Facet: facet.Name, Field: "buckets", Reason: err.Error()}
			}
			e.classifiers[facet.Name] = c
		case sections.FacetPeriod:
			e.classifiers[facet.Name] = Period(f.Get, o.now)
		default:
			return nil, &apperror.ConfigError{Section: section.Name, Facet: facet.Name, Field: "kind", Reason: fmt.Sprintf("unknown facet kind '%s'", facet.Kind)}
		}
	}
	return e, nil
}

// Section returns the compiled section.
func (e *Engine[T]) Section() sections.Section {
	return e.section
}

// Columns returns the displayed fields in configuration order.
func (e *Engine[T]) Columns() []fields.Field[T] {
	return e.columns
}

// Scope returns the items belonging to the section. The result is a new slice.
func (e *Engine[T]) Scope(items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if e.scope == nil || e.scope(item, e.scopeValue) {
			out = append(out, item)
		}
	}
	return out
}

// Filter applies the selection and the query to items, which must already be scoped.
func (e *Engine[T]) Filter(items []T, sel Selection, query string) []T {
	return Filter(items, e.classifiers, sel, query, e.search)
}

// Aggregate counts all and filtered and sums the configured amount fields over filtered.
// Invalid amounts contribute zero.
func (e *Engine[T]) Aggregate(all, filtered []T) Aggregate {
	agg := Aggregate{
		Total:    len(all),
		Filtered: len(filtered),
		Primary:  e.section.PrimarySum(),
		Sums:     make(map[string]decimal.Decimal, len(e.sums)),
	}
	for _, s := range e.sums {
		total := decimal.Zero
		for _, item := range filtered {
			if v := s.get(item); v.Valid {
				total = total.Add(v.Amount)
			}
		}
		agg.Sums[s.name] = total
	}
	return agg
}

// Run scopes, filters and aggregates items in one pass so the aggregate always matches
// the returned list.
func (e *Engine[T]) Run(items []T, sel Selection, query string) Result[T] {
	scoped := e.Scope(items)
	filtered := e.Filter(scoped, sel, query)
	return Result[T]{Items: filtered, Aggregate: e.Aggregate(scoped, filtered)}
}

// FacetValues lists the values a facet can take over items: the configured options
// followed by any other value found in the data for equals facets. Unknown facets
// return nil.
func (e *Engine[T]) FacetValues(items []T, facet string) []string {
	cfg, ok := e.section.Facet(facet)
	if !ok {
		return nil
	}
	values := cfg.Options()
	if cfg.Kind != sections.FacetEquals {
		return values
	}

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[Fold(strings.TrimSpace(v))] = true
	}
	get := e.facetFields[facet]
	var extra []string
	for _, item := range e.Scope(items) {
		raw := strings.TrimSpace(get(item).String())
		key := Fold(raw)
		if raw == "" || seen[key] {
			continue
		}
		seen[key] = true
		extra = append(extra, raw)
	}
	sort.Strings(extra)
	return append(values, extra...)
}
