// Package filterstate tracks, per section, the selected facet values and the raw free-text
// query of the active view.
package filterstate

import (
	"sync"

	"yamo/treasury/internal/filter"
)

type sectionState struct {
	facets filter.Selection
	query  string
}

// Store holds the filter state of every section. Sections and facets are created on first
// use; a facet whose last value is removed disappears. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sections map[string]*sectionState
}

// New returns an empty store.
func New() *Store {
	return &Store{sections: make(map[string]*sectionState)}
}

func (s *Store) section(name string) *sectionState {
	st, ok := s.sections[name]
	if !ok {
		st = &sectionState{facets: make(filter.Selection)}
		s.sections[name] = st
	}
	return st
}

// Toggle adds value to the facet when absent and removes it otherwise. It returns whether
// the value is selected afterwards.
func (s *Store) Toggle(section, facet, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.section(section)
	values := st.facets[facet]
	if values.Has(value) {
		delete(values, value)
		if len(values) == 0 {
			delete(st.facets, facet)
		}
		return false
	}
	if values == nil {
		values = make(filter.Set)
		st.facets[facet] = values
	}
	values[value] = struct{}{}
	return true
}

// Remove deselects value. Removing an absent value is a no-op.
func (s *Store) Remove(section, facet, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sections[section]
	if !ok {
		return
	}
	values := st.facets[facet]
	delete(values, value)
	if len(values) == 0 {
		delete(st.facets, facet)
	}
}

// Clear deselects every facet value of a section. The query is kept.
func (s *Store) Clear(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sections[section]; ok {
		st.facets = make(filter.Selection)
	}
}

// Reset clears the facets and the query of a section, as on view activation.
func (s *Store) Reset(section string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sections, section)
}

// SetQuery stores the query text as typed.
func (s *Store) SetQuery(section, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.section(section).query = text
}

// Query returns the query text as typed.
func (s *Store) Query(section string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.sections[section]; ok {
		return st.query
	}
	return ""
}

// Selection returns a copy of the section's facet selection.
func (s *Store) Selection(section string) filter.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sections[section]
	if !ok {
		return filter.Selection{}
	}
	return st.facets.Clone()
}

// Selected returns the sorted selected values of a facet.
func (s *Store) Selected(section, facet string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sections[section]
	if !ok {
		return nil
	}
	if values := st.facets[facet]; len(values) > 0 {
		return values.Values()
	}
	return nil
}

// IsSelected reports whether value is selected for the facet.
func (s *Store) IsSelected(section, facet, value string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sections[section]
	return ok && st.facets[facet].Has(value)
}

// Badges returns the number of selected values per facet. Facets without a selection are
// absent.
func (s *Store) Badges(section string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	badges := make(map[string]int)
	if st, ok := s.sections[section]; ok {
		for facet, values := range st.facets {
			if len(values) > 0 {
				badges[facet] = len(values)
			}
		}
	}
	return badges
}

// ActiveCount returns the number of selected values across all facets of a section.
func (s *Store) ActiveCount(section string) int {
	total := 0
	for _, n := range s.Badges(section) {
		total += n
	}
	return total
}
