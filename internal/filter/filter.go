// Package filter computes the filtered list and aggregates of a section from a facet
// selection and a free-text query. Every function is pure: inputs are never modified.
package filter

import (
	"strings"

	"yamo/treasury/internal/fields"

	"golang.org/x/text/cases"
)

// Classifier reports whether item belongs to the facet value. Values the facet does not
// know must return false.
type Classifier[T any] func(item T, value string) bool

// Filter returns the items that pass every facet with a non-empty selection (OR between
// the values of one facet) and whose search text contains query, ignoring case. The query
// is trimmed first, so a query of only whitespace does not filter. Selected facets missing
// from classifiers impose no constraint. The input order is kept and items is never
// modified.
func Filter[T any](items []T, classifiers map[string]Classifier[T], sel Selection, query string, search []fields.Accessor[T]) []T {
	var facets []facetCheck[T]
	for name, values := range sel {
		classify, ok := classifiers[name]
		if !ok || len(values) == 0 {
			continue
		}
		facets = append(facets, facetCheck[T]{classify: classify, values: values.Values()})
	}

	needle := Fold(strings.TrimSpace(query))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if !matchesFacets(item, facets) {
			continue
		}
		if needle != "" && !strings.Contains(SearchText(item, search), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

type facetCheck[T any] struct {
	classify Classifier[T]
	values   []string
}

func matchesFacets[T any](item T, facets []facetCheck[T]) bool {
	for _, f := range facets {
		matched := false
		for _, v := range f.values {
			if f.classify(item, v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// SearchText joins the searchable fields of item with single spaces and case-folds the result.
// Missing or invalid values contribute an empty string.
func SearchText[T any](item T, search []fields.Accessor[T]) string {
	parts := make([]string, 0, len(search))
	for _, get := range search {
		parts = append(parts, get(item).String())
	}
	return Fold(strings.Join(parts, " "))
}

// Fold lowercases s with Unicode case folding.
func Fold(s string) string {
	return cases.Fold().String(s)
}
