package filter

import "sort"

// Set is a set of selected facet values.
type Set map[string]struct{}

// NewSet returns a set holding values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of values.
func (s Set) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Values returns the values sorted.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Selection maps facet names to their selected values.
type Selection map[string]Set

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for facet, values := range s {
		out[facet] = values.Clone()
	}
	return out
}

// Active reports whether any facet has a selected value.
func (s Selection) Active() bool {
	for _, values := range s {
		if len(values) > 0 {
			return true
		}
	}
	return false
}
