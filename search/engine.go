// Package search filters small in-memory collections by a free-text term and
// a set of selected filter values.
//
// Matching is case-insensitive substring containment; there is no ranking.
// What is searchable and how filters are derived and matched is supplied by
// a Strategy per collection kind.
package search

import (
	"strings"
	"sync"
)

// Apply returns the items of items that pass both stages, in their original
// order. The filter stage runs only when selected is non-empty and defers
// to s.MatchFilter; the search stage keeps items where any search field
// contains the trimmed term, ignoring case. A blank term keeps everything.
func Apply(items Collection, term string, selected *Selection, s Strategy) Collection {
	out := make(Collection, 0, len(items))
	filtering := selected.Len() > 0
	needle := strings.ToLower(strings.TrimSpace(term))
	fields := s.SearchFields()
	for _, item := range items {
		if filtering && !s.MatchFilter(item, selected) {
			continue
		}
		if needle != "" && !matchesAny(item, fields, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesAny(item Item, fields []string, needle string) bool {
	for _, f := range fields {
		if fieldContains(item, f, needle) {
			return true
		}
	}
	return false
}

// Engine holds the query state for one view of a collection and derives
// the filtered view and the filter vocabulary from it. The derived values
// are memoized and recomputed only after the state they depend on changes.
// An Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	strategy Strategy
	items    Collection
	term     string
	selected *Selection

	options []FilterOption

	// rev counts query/collection changes; view is valid while viewRev == rev.
	rev     uint64
	viewRev uint64
	view    Collection
}

// NewEngine creates an engine over items with empty query state.
func NewEngine(items Collection, s Strategy) *Engine {
	e := &Engine{strategy: s, selected: NewSelection()}
	e.setCollection(items)
	return e
}

// SetCollection replaces the universe and recomputes the filter vocabulary.
// The query state is kept.
func (e *Engine) SetCollection(items Collection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setCollection(items)
}

func (e *Engine) setCollection(items Collection) {
	e.items = items
	e.options = e.strategy.ExtractFilters(items)
	if e.options == nil {
		e.options = []FilterOption{}
	}
	e.rev++
}

// SetSearchTerm replaces the search term.
func (e *Engine) SetSearchTerm(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if term != e.term {
		e.term = term
		e.rev++
	}
}

// SearchTerm returns the current search term.
func (e *Engine) SearchTerm() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.term
}

// ToggleFilter selects id, or deselects it when already selected.
func (e *Engine) ToggleFilter(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected.toggle(id)
	e.rev++
}

// Select adds ids to the selection without toggling those already present.
func (e *Engine) Select(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		if e.selected.add(id) {
			e.rev++
		}
	}
}

// SelectedFilters returns the selected filter ids in selection order.
func (e *Engine) SelectedFilters() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected.IDs()
}

// IsSelected reports whether id is selected.
func (e *Engine) IsSelected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected.Has(id)
}

// ClearFilters resets both the search term and the selection.
func (e *Engine) ClearFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.term = ""
	e.selected = NewSelection()
	e.rev++
}

// Active reports whether a search term or any filter is set.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return strings.TrimSpace(e.term) != "" || e.selected.Len() > 0
}

// Total returns the size of the unfiltered collection.
func (e *Engine) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// FilteredView returns the items passing the current query, in collection
// order. The returned slice is shared until the next state change and must
// not be modified.
func (e *Engine) FilteredView() Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil || e.viewRev != e.rev {
		e.view = Apply(e.items, e.term, e.selected, e.strategy)
		e.viewRev = e.rev
	}
	return e.view
}

// AvailableFilterOptions returns the filter vocabulary of the collection.
// It does not depend on the query state.
func (e *Engine) AvailableFilterOptions() []FilterOption {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options
}
