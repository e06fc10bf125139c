package search

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogPosts() Collection {
	return Collection{
		{"slug": "p1", "title": "Landing zones", "excerpt": "Multi-account AWS", "tags": []any{"cloud", "devops"}},
		{"slug": "p2", "title": "Prompting", "excerpt": "LLM notes", "tags": []any{"ai"}},
		{"slug": "p3", "title": "Azure basics", "excerpt": "First steps", "tags": []any{"cloud"}},
		{"slug": "p4", "title": "MLOps pipelines", "excerpt": "CI for models", "tags": []any{"devops", "ai"}},
		{"slug": "p5", "title": "Career change", "excerpt": "Why I moved", "tags": []any{}},
	}
}

func projects() Collection {
	return Collection{
		{"id": "resume", "title": "Cloud Resume", "subtitle": "AWS serverless", "excerpt": "Static site with a counter", "technologies": []any{"AWS Lambda", "DynamoDB", "terraform"}, "status": "completed"},
		{"id": "k8s", "title": "Homelab cluster", "subtitle": "k3s", "excerpt": "GitOps at home", "technologies": []any{"Kubernetes", "ArgoCD"}, "status": "in-progress"},
		{"id": "bot", "title": "Chat bot", "subtitle": "Python", "excerpt": "Slack helper", "technologies": "Python, FastAPI", "status": "planned"},
		{"id": "notes", "title": "Notes", "status": "completed"},
	}
}

func slugs(items Collection, key string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, String(it, key))
	}
	return out
}

func TestEmptyQueryIsIdentity(t *testing.T) {
	posts := blogPosts()
	e := NewEngine(posts, PostsByTag())
	assert.Equal(t, posts, e.FilteredView())
	assert.False(t, e.Active())
	assert.Equal(t, 5, e.Total())
}

func TestScenarioATagFilters(t *testing.T) {
	e := NewEngine(blogPosts(), PostsByTag())

	e.ToggleFilter("cloud")
	assert.Equal(t, []string{"p1", "p3"}, slugs(e.FilteredView(), "slug"))

	e.ToggleFilter("devops")
	assert.Equal(t, []string{"p1", "p3", "p4"}, slugs(e.FilteredView(), "slug"))
	assert.Equal(t, []string{"cloud", "devops"}, e.SelectedFilters())
}

func TestScenarioBSearchTechnologies(t *testing.T) {
	e := NewEngine(projects(), ProjectsByStatus())
	e.SetSearchTerm("Terraform")
	view := e.FilteredView()
	require.Len(t, view, 1)
	assert.Equal(t, "resume", view[0]["id"])
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	e := NewEngine(projects(), ProjectsByStatus())

	tests := []struct {
		term string
		want []string
	}{
		{"cloud", []string{"resume"}},
		{"K3S", []string{"k8s"}},
		{"fastapi", []string{"bot"}}, // scalar string in an array field
		{"slack", []string{"bot"}},
		{"o", []string{"resume", "k8s", "bot", "notes"}},
		{"nothing-like-this", []string{}},
		{"   ", []string{"resume", "k8s", "bot", "notes"}},
		{"terraform ", []string{"resume"}}, // pasted terms carry padding
		{"\tNotes\n", []string{"notes"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			e.SetSearchTerm(tt.term)
			assert.Equal(t, tt.want, slugs(e.FilteredView(), "id"))
		})
	}
}

func TestSearchOnlyReturnsMatchingItems(t *testing.T) {
	items := projects()
	for _, term := range []string{"a", "Ku", "DB", " home"} {
		got := Apply(items, term, nil, ProjectsByStatus())
		for _, it := range got {
			needle := strings.ToLower(strings.TrimSpace(term))
			assert.True(t, matchesAny(it, ProjectsByStatus().Fields, needle), "term %q item %v", term, it["id"])
		}
	}
}

func TestFilterAndSearchCombine(t *testing.T) {
	e := NewEngine(blogPosts(), PostsByTag())
	e.ToggleFilter("ai")
	e.SetSearchTerm("pipelines")
	assert.Equal(t, []string{"p4"}, slugs(e.FilteredView(), "slug"))
	assert.True(t, e.Active())
}

func TestClearFiltersResetsEverything(t *testing.T) {
	posts := blogPosts()
	e := NewEngine(posts, PostsByTag())
	e.ToggleFilter("ai")
	e.SetSearchTerm("zzz")
	require.Empty(t, e.FilteredView())

	e.ClearFilters()
	assert.Equal(t, posts, e.FilteredView())
	assert.Empty(t, e.SearchTerm())
	assert.Empty(t, e.SelectedFilters())

	e.ClearFilters()
	assert.Equal(t, posts, e.FilteredView())
}

func TestToggleIsSelfInverse(t *testing.T) {
	e := NewEngine(blogPosts(), PostsByTag())
	e.ToggleFilter("cloud")
	beforeSel := e.SelectedFilters()
	beforeView := slugs(e.FilteredView(), "slug")

	e.ToggleFilter("ai")
	assert.NotEqual(t, beforeView, slugs(e.FilteredView(), "slug"))
	e.ToggleFilter("ai")

	assert.Equal(t, beforeSel, e.SelectedFilters())
	assert.Equal(t, beforeView, slugs(e.FilteredView(), "slug"))
}

func TestFilterOptionsIgnoreQueryState(t *testing.T) {
	e := NewEngine(blogPosts(), PostsByTag())
	want := []FilterOption{
		{ID: "ai", Label: "Ai"},
		{ID: "cloud", Label: "Cloud"},
		{ID: "devops", Label: "Devops"},
	}
	assert.Equal(t, want, e.AvailableFilterOptions())

	e.ToggleFilter("cloud")
	e.SetSearchTerm("landing")
	assert.Equal(t, want, e.AvailableFilterOptions())

	e.SetCollection(blogPosts()[:2])
	assert.Len(t, e.AvailableFilterOptions(), 3)
	e.SetCollection(blogPosts()[1:2])
	assert.Equal(t, []FilterOption{{ID: "ai", Label: "Ai"}}, e.AvailableFilterOptions())
}

func TestProjectStatusOptions(t *testing.T) {
	e := NewEngine(projects(), ProjectsByStatus())
	assert.Equal(t, []FilterOption{
		{ID: "completed", Label: "Completed", Icon: "fas fa-check-circle"},
		{ID: "in-progress", Label: "In progress", Icon: "fas fa-spinner"},
		{ID: "planned", Label: "Planned", Icon: "fas fa-clock"},
	}, e.AvailableFilterOptions())

	e.ToggleFilter("completed")
	e.ToggleFilter("planned")
	assert.Equal(t, []string{"resume", "bot", "notes"}, slugs(e.FilteredView(), "id"))
}

func TestEmptyAndMalformedCollections(t *testing.T) {
	e := NewEngine(nil, PostsByTag())
	assert.Empty(t, e.FilteredView())
	assert.NotNil(t, e.FilteredView())
	assert.Empty(t, e.AvailableFilterOptions())

	e.SetSearchTerm("x")
	e.ToggleFilter("y")
	assert.Empty(t, e.FilteredView())

	odd := Collection{
		{"title": 42, "tags": "go"},
		{"title": nil, "tags": []any{1, "web", nil}},
		nil,
	}
	e = NewEngine(odd, PostsByTag())
	assert.Equal(t, []FilterOption{{ID: "go", Label: "Go"}, {ID: "web", Label: "Web"}}, e.AvailableFilterOptions())
	e.SetSearchTerm("42")
	assert.Empty(t, e.FilteredView())
	e.SetSearchTerm("web")
	assert.Len(t, e.FilteredView(), 1)
}

func TestFilteredViewIsMemoized(t *testing.T) {
	e := NewEngine(blogPosts(), PostsByTag())
	e.ToggleFilter("cloud")
	first := e.FilteredView()
	second := e.FilteredView()
	assert.Same(t, &first[0], &second[0])

	e.SetSearchTerm("azure")
	assert.Len(t, e.FilteredView(), 1)
}

func TestSelectDoesNotToggle(t *testing.T) {
	e := NewEngine(blogPosts(), PostsByTag())
	e.Select("ai", "ai", "")
	e.Select("ai")
	assert.Equal(t, []string{"ai"}, e.SelectedFilters())
	assert.True(t, e.IsSelected("ai"))
}

func TestFuncsStrategy(t *testing.T) {
	s := Funcs{
		Fields: []string{"title"},
		Extract: func(items Collection) []FilterOption {
			return []FilterOption{{ID: "featured", Label: "Featured"}}
		},
		Match: func(item Item, selected *Selection) bool {
			return selected.Has("featured") && Bool(item, "featured")
		},
	}
	items := Collection{{"title": "A", "featured": true}, {"title": "B"}}
	e := NewEngine(items, s)
	e.ToggleFilter("featured")
	assert.Equal(t, []string{"A"}, slugs(e.FilteredView(), "title"))

	assert.Empty(t, Funcs{}.ExtractFilters(items))
	assert.False(t, Funcs{}.MatchFilter(items[0], NewSelection("x")))
}

func TestLookupNested(t *testing.T) {
	item := Item{"links": map[string]any{"github": "https://github.com/x"}, "a.b": "literal"}
	assert.Equal(t, "https://github.com/x", String(item, "links.github"))
	assert.Equal(t, "literal", String(item, "a.b"))
	assert.Empty(t, String(item, "links.missing"))
	assert.Empty(t, String(nil, "links"))
	assert.Equal(t, []string{"x"}, Strings(Item{"v": []string{"x"}}, "v"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "In progress", StatusLabel("in-progress"))
	assert.Equal(t, "On hold-long", StatusLabel("on-hold-long"))
	assert.Equal(t, "", StatusLabel(""))
	assert.Equal(t, "Machine Learning", TagLabel("machine-learning"))
}

func TestQueryRoundTrip(t *testing.T) {
	v, err := url.ParseQuery("q=cloud&filter=ai&filter=devops,ai&filter=")
	require.NoError(t, err)
	q := ParseQuery(v)
	assert.Equal(t, "cloud", q.Term)
	assert.Equal(t, []string{"ai", "devops"}, q.Filters)
	assert.Equal(t, "filter=ai&filter=devops&q=cloud", q.Encode())

	toggled := q.Toggle("ai")
	assert.Equal(t, []string{"devops"}, toggled.Filters)
	assert.Equal(t, []string{"ai", "devops"}, q.Filters, "Toggle must not modify the receiver")

	assert.True(t, Query{Term: "  "}.Empty())
	assert.Empty(t, Query{Term: " "}.Encode())

	e := NewEngine(blogPosts(), PostsByTag())
	q.Apply(e)
	assert.Equal(t, q, QueryOf(e))
}
