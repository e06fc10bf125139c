package search

import (
	"net/url"
	"strings"
)

// URL parameters carrying the query state.
const (
	ParamTerm   = "q"
	ParamFilter = "filter"
)

// Query is the query state as it travels in a URL: a search term and the
// selected filter ids. It lives for one request only.
type Query struct {
	Term    string
	Filters []string
}

// ParseQuery reads the query state from URL values. Repeated and
// comma-separated filter values are both accepted; duplicates and blanks
// are dropped.
func ParseQuery(v url.Values) Query {
	q := Query{Term: v.Get(ParamTerm)}
	sel := NewSelection()
	for _, raw := range v[ParamFilter] {
		for _, id := range strings.Split(raw, ",") {
			sel.add(strings.TrimSpace(id))
		}
	}
	q.Filters = sel.IDs()
	return q
}

// Apply loads the query into e.
func (q Query) Apply(e *Engine) {
	e.SetSearchTerm(q.Term)
	e.Select(q.Filters...)
}

// Toggle returns a copy of q with id toggled.
func (q Query) Toggle(id string) Query {
	sel := NewSelection(q.Filters...)
	sel.toggle(id)
	return Query{Term: q.Term, Filters: sel.IDs()}
}

// Empty reports whether the query neither searches nor filters.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Term) == "" && len(q.Filters) == 0
}

// Encode returns the URL query string for q, without the leading "?".
func (q Query) Encode() string {
	v := url.Values{}
	if strings.TrimSpace(q.Term) != "" {
		v.Set(ParamTerm, q.Term)
	}
	for _, id := range q.Filters {
		v.Add(ParamFilter, id)
	}
	return v.Encode()
}

// QueryOf captures the current state of e.
func QueryOf(e *Engine) Query {
	return Query{Term: e.SearchTerm(), Filters: e.SelectedFilters()}
}
