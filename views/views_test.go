package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/search"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func projects() search.Collection {
	return search.Collection{
		{"id": "p1", "title": "Cloud Resume", "status": "completed", "year": float64(2024)},
		{"id": "p2", "title": "Home <Lab>", "status": "in-progress"},
	}
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://example.com/blog/hello/", BuildURL("https://example.com", "blog", "hello"))
	assert.Equal(t, "https://example.com", BuildURL("https://example.com"))
}

func TestRelatedPosts(t *testing.T) {
	current := search.Item{"slug": "a", "tags": []any{"Go", "cloud"}}
	posts := search.Collection{
		current,
		{"slug": "b", "tags": []any{"go "}},
		{"slug": "c", "tags": []any{"rust"}},
		{"slug": "d"},
	}
	related := RelatedPosts(current, posts)
	require.Len(t, related, 1)
	assert.Equal(t, "b", related[0]["slug"])
}

func TestItemID(t *testing.T) {
	assert.Equal(t, "p1", ItemID("projects", search.Item{"id": "p1", "slug": "x"}))
	assert.Equal(t, "x", ItemID("blog", search.Item{"id": "p1", "slug": "x"}))
	assert.Equal(t, "p1", ItemID("blog", search.Item{"id": "p1"}))
}

func TestResultsEmptyStates(t *testing.T) {
	unavailable := render(t, Results(Listing{Kind: "projects", Unavailable: true}))
	assert.Contains(t, unavailable, "No data available")
	assert.NotContains(t, unavailable, "Clear filters")

	noMatch := render(t, Results(Listing{
		Kind:  "projects",
		Query: search.Query{Term: "zzz"},
		Total: 2,
	}))
	assert.Contains(t, noMatch, "No projects match your search")
	assert.Contains(t, noMatch, `href="/projects/"`)
}

func TestResultsEscapesAndLinks(t *testing.T) {
	out := render(t, Results(Listing{Kind: "projects", Items: projects(), Total: 2}))
	assert.Contains(t, out, `href="/projects/p1/"`)
	assert.Contains(t, out, "Home &lt;Lab&gt;")
	assert.Contains(t, out, "2024 • Completed")
	assert.Contains(t, out, "In progress")
	assert.Contains(t, out, "2 of 2")
}

func TestSearchFilterBarToggleLinks(t *testing.T) {
	l := Listing{
		Kind:       "projects",
		FilterType: "status",
		Query:      search.Query{Term: "cloud", Filters: []string{"completed"}},
		Options: []search.FilterOption{
			{ID: "completed", Label: "Completed"},
			{ID: "planned", Label: "Planned"},
		},
	}
	out := render(t, SearchFilterBar(l))

	// Selected pill links to the query without it; the other adds itself.
	assert.Contains(t, out, `href="/projects/?q=cloud"`)
	assert.Contains(t, out, `href="/projects/?filter=completed&amp;filter=planned&amp;q=cloud"`)
	assert.Contains(t, out, `filter-pill active`)
	assert.Contains(t, out, "1 status selected • Search active")
	assert.Contains(t, out, `value="cloud"`)
	assert.Contains(t, out, `name="filter" value="completed"`)
}

func TestSearchFilterBarInactive(t *testing.T) {
	out := render(t, SearchFilterBar(Listing{Kind: "blog", FilterType: "tag"}))
	assert.NotContains(t, out, "Clear all")
	assert.NotContains(t, out, "filter-pills")
}

func TestFilterGroupOpensWhileFiltering(t *testing.T) {
	l := Listing{
		Kind:       "blog",
		FilterType: "tag",
		Options:    []search.FilterOption{{ID: "go", Label: "Go", Icon: "fab fa-golang"}},
	}
	closed := render(t, SearchFilterBar(l))
	assert.Contains(t, closed, `<details class="filter-group">`)
	assert.Contains(t, closed, `<i class="fab fa-golang mr-1"></i>`)
	assert.Contains(t, closed, `aria-pressed="false"`)

	l.Query = search.Query{Filters: []string{"go"}}
	open := render(t, SearchFilterBar(l))
	assert.Contains(t, open, `<details class="filter-group" open>`)
	assert.Contains(t, open, `class="badge badge-pill filter-pill active" href="/blog/"`)
	assert.Contains(t, open, `aria-pressed="true"`)
}

func TestViewCounterHiddenWhenZero(t *testing.T) {
	assert.Empty(t, render(t, ViewCounter(0)))
	assert.Contains(t, render(t, ViewCounter(42)), "42 views")
}

func TestLayout(t *testing.T) {
	page := Page{
		Site:   SiteConfig{Name: "Folio", URL: "https://example.com", Author: "Jo"},
		Meta:   PageMeta{Title: "Projects", URL: "https://example.com/projects/"},
		Active: "projects",
		Views:  7,
	}
	out := render(t, Layout(page, templ.Raw("<p>body</p>")))
	assert.Contains(t, out, "<title>Projects | Folio</title>")
	assert.Contains(t, out, `<link rel="canonical" href="https://example.com/projects/">`)
	assert.Contains(t, out, `class="nav-link active" href="/projects/"`)
	assert.Contains(t, out, "<p>body</p>")
	assert.Contains(t, out, "7 views")
	assert.Contains(t, out, `"@type":"WebSite"`)
}

func TestBodyPrefersRenderedHTML(t *testing.T) {
	assert.Equal(t, "<p>ready</p>", render(t, Body(search.Item{"body_html": "<p>ready</p>", "content": "ignored"})))
	assert.Contains(t, render(t, Body(search.Item{"content": "# Title"})), `<h1 id="title">Title</h1>`)
	assert.Empty(t, render(t, Body(search.Item{})))
}

func TestPostDetailRelated(t *testing.T) {
	post := search.Item{"slug": "a", "title": "A", "tags": []any{"go"}}
	out := render(t, PostDetail(post, search.Collection{{"slug": "b", "title": "B"}}))
	assert.Contains(t, out, "Related posts")
	assert.Contains(t, out, `href="/blog/b/"`)
}

func TestResumeSkipsMissingSections(t *testing.T) {
	r := Resume{
		Profile: search.Item{"firstName": "Faza", "lastName": "Billah", "email": "f@example.com"},
		Skills: search.Collection{{
			"title":  "Cloud",
			"skills": []any{map[string]any{"label": "AWS", "description": "EC2, S3"}},
		}},
		Certifications: search.Item{
			"completed": []any{map[string]any{"name": "SAA", "issuer": "AWS", "completedDate": "2024"}},
		},
	}
	out := render(t, ResumePage(r))
	assert.Contains(t, out, "Technical Skills")
	assert.Contains(t, out, "<strong>AWS:</strong> EC2, S3")
	assert.Contains(t, out, "SAA | AWS | 2024")
	assert.Contains(t, out, "mailto:f@example.com")
	assert.NotContains(t, out, "Work Experience")
	assert.NotContains(t, out, "Education")
}

func TestJsonLD(t *testing.T) {
	ld := BlogPostingJsonLD(SiteConfig{Name: "Folio", URL: "https://example.com"}, search.Item{
		"slug": "hello", "title": "Hello", "tags": []any{"go", "cloud"},
	})
	assert.Contains(t, ld, `"url":"https://example.com/blog/hello/"`)
	assert.Contains(t, ld, `"keywords":"go, cloud"`)
}
