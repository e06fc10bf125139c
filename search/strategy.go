package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FilterOption is one selectable filter value. ID is matched against the
// selection; Label and Icon are for display only.
type FilterOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Strategy configures an Engine for one kind of collection.
type Strategy interface {
	// SearchFields lists the fields tested against the search term.
	SearchFields() []string
	// ExtractFilters derives the filter vocabulary from the collection.
	ExtractFilters(items Collection) []FilterOption
	// MatchFilter reports whether item satisfies a non-empty selection.
	MatchFilter(item Item, selected *Selection) bool
}

// FieldStrategy filters on the distinct values of one field, which may be
// a single string (a status, a category) or an array of strings (tags). An
// item matches when any of its values is selected.
type FieldStrategy struct {
	Fields      []string
	FilterField string
	// Label formats an option label from its id. Defaults to the id.
	Label func(id string) string
	// Icons maps option ids to icon classes.
	Icons map[string]string
}

// SearchFields implements Strategy.
func (f FieldStrategy) SearchFields() []string { return f.Fields }

// ExtractFilters implements Strategy. Options are sorted by id.
func (f FieldStrategy) ExtractFilters(items Collection) []FilterOption {
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, v := range Strings(item, f.FilterField) {
			if v = strings.TrimSpace(v); v != "" {
				seen[v] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	opts := make([]FilterOption, 0, len(ids))
	for _, id := range ids {
		label := id
		if f.Label != nil {
			label = f.Label(id)
		}
		opts = append(opts, FilterOption{ID: id, Label: label, Icon: f.Icons[id]})
	}
	return opts
}

// MatchFilter implements Strategy.
func (f FieldStrategy) MatchFilter(item Item, selected *Selection) bool {
	for _, v := range Strings(item, f.FilterField) {
		if selected.Has(strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// ProjectsByStatus searches projects by title, subtitle, excerpt and
// technologies and filters them by status.
func ProjectsByStatus() FieldStrategy {
	return FieldStrategy{
		Fields:      []string{"title", "subtitle", "excerpt", "technologies"},
		FilterField: "status",
		Label:       StatusLabel,
		Icons: map[string]string{
			"completed":   "fas fa-check-circle",
			"in-progress": "fas fa-spinner",
			"planned":     "fas fa-clock",
		},
	}
}

// PostsByTag searches blog posts by title, excerpt and tags and filters
// them by tag.
func PostsByTag() FieldStrategy {
	return FieldStrategy{
		Fields:      []string{"title", "excerpt", "tags"},
		FilterField: "tags",
		Label:       TagLabel,
	}
}

// StatusLabel turns a status id into a label: the first dash becomes a
// space and the first letter is upper-cased ("in-progress" -> "In progress").
func StatusLabel(id string) string {
	s := strings.Replace(id, "-", " ", 1)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// TagLabel title-cases a tag id ("machine-learning" -> "Machine Learning").
// A Caser is stateful, so each call gets its own.
func TagLabel(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}

// Funcs adapts plain functions to a Strategy.
type Funcs struct {
	Fields  []string
	Extract func(items Collection) []FilterOption
	Match   func(item Item, selected *Selection) bool
}

// SearchFields implements Strategy.
func (f Funcs) SearchFields() []string { return f.Fields }

// ExtractFilters implements Strategy. A nil Extract yields no options.
func (f Funcs) ExtractFilters(items Collection) []FilterOption {
	if f.Extract == nil {
		return nil
	}
	return f.Extract(items)
}

// MatchFilter implements Strategy. A nil Match rejects everything.
func (f Funcs) MatchFilter(item Item, selected *Selection) bool {
	return f.Match != nil && f.Match(item, selected)
}
