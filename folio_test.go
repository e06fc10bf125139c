package folio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/datasource"
	"github.com/eringen/folio/views"
)

type fakeCounter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCounter) Increment(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return int64(100 + f.calls), nil
}

func (f *fakeCounter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var siteData = fstest.MapFS{
	"profile.json": {Data: []byte(`{"firstName":"Alex","lastName":"Morgan","lead":"Cloud engineer."}`)},
	"skills.json": {Data: []byte(`{"skillCategories":[
		{"title":"Cloud","skills":[{"label":"AWS","description":"Lambda"}]}
	]}`)},
	"projects.json": {Data: []byte(`[
		{"id":"p1","title":"Cloud Resume","status":"completed","technologies":["AWS"]},
		{"id":"p2","title":"Homelab","status":"in-progress","technologies":["Kubernetes"]},
		{"id":"p3","title":"Pipelines","status":"completed","technologies":["GitHub Actions"]}
	]`)},
	"blog.json": {Data: []byte(`[
		{"slug":"a","title":"Post A","tags":["go"],"publishedDate":"2024-05-01","body_html":"<p>alpha</p>"},
		{"slug":"b","title":"Post B","tags":["go","cloud"],"publishedDate":"2024-04-01"},
		{"slug":"c","title":"Post C","tags":["rust"],"publishedDate":"2024-03-01"}
	]`)},
}

func newTestApp(t *testing.T, fsys fstest.MapFS, inc *fakeCounter) *App {
	t.Helper()
	r := datasource.NewResolver(datasource.StaticConfig(), datasource.WithSource(datasource.NewFSSource(fsys)))
	opts := []Option{WithResolver(r)}
	if inc != nil {
		opts = append(opts, WithIncrementer(inc))
	}
	app := New(SiteConfig{
		Name:            "Folio",
		URL:             "https://example.com",
		SessionSecret:   "test-secret-test-secret",
		CounterDisabled: inc == nil,
	}, opts...)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.Close() })
	return app
}

func get(app *App, target string, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func htmx(req *http.Request) { req.Header.Set("HX-Request", "true") }

func TestSetupRequiresSessionSecret(t *testing.T) {
	app := New(SiteConfig{})
	assert.Error(t, app.Setup())
}

func TestResumeHidesFailedSections(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	rec := get(app, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Morgan")
	assert.Contains(t, body, "Technical Skills")
	assert.NotContains(t, body, "Work Experience")
	assert.NotContains(t, body, "view-counter")
}

func TestProjectsFilterFromQuery(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	rec := get(app, "/projects/?filter=completed")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<html")
	assert.Contains(t, body, "Cloud Resume")
	assert.Contains(t, body, "Pipelines")
	assert.NotContains(t, body, "Homelab")
	assert.Contains(t, body, "2 of 3")
	assert.Contains(t, body, "1 status selected")
}

func TestProjectsSearchNoMatch(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	body := get(app, "/projects/?q=nothing-matches").Body.String()
	assert.Contains(t, body, "No projects match your search")
	assert.NotContains(t, body, "No data available")
}

func TestListingPartial(t *testing.T) {
	inc := &fakeCounter{}
	app := newTestApp(t, siteData, inc)
	rec := get(app, "/blog/?q=post+b&partial=results", htmx)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div id="results"`))
	assert.Contains(t, body, "Post B")
	assert.NotContains(t, body, "Post A")
	assert.Equal(t, 0, inc.Calls(), "partials never count a visit")
	assert.Equal(t, "HX-Request", rec.Header().Get("Vary"))
}

func TestRenderFailureLeavesResponseToErrorHandler(t *testing.T) {
	vf := DefaultViews()
	vf.Resume = func(views.Resume) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, _ = io.WriteString(w, "<p>half a page</p>")
			return errors.New("template exploded")
		})
	}
	r := datasource.NewResolver(datasource.StaticConfig(), datasource.WithSource(datasource.NewFSSource(siteData)))
	app := New(SiteConfig{
		Name:            "Folio",
		SessionSecret:   "test-secret-test-secret",
		CounterDisabled: true,
	}, WithResolver(r), WithViews(vf))
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.Close() })

	rec := get(app, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NotContains(t, rec.Body.String(), "half a page")
}

func TestListingUnavailable(t *testing.T) {
	app := newTestApp(t, fstest.MapFS{}, nil)
	rec := get(app, "/projects/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data available")
}

func TestProjectDetail(t *testing.T) {
	app := newTestApp(t, siteData, nil)

	rec := get(app, "/projects/p2/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Homelab")

	rec = get(app, "/projects/missing/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}

func TestPostDetailRelated(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	rec := get(app, "/blog/a/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<p>alpha</p>")
	assert.Contains(t, body, `href="/blog/b/"`)
	assert.NotContains(t, body, `href="/blog/c/"`)
	assert.Contains(t, body, `"@type":"BlogPosting"`)
}

func TestTrailingSlashRedirect(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	rec := get(app, "/projects")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/projects/", rec.Header().Get("Location"))
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	rec := get(app, "/nope/here/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}

func TestVisitorCountedOncePerSession(t *testing.T) {
	inc := &fakeCounter{}
	app := newTestApp(t, siteData, inc)

	first := get(app, "/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "101 views")
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	withSession := func(req *http.Request) {
		for _, c := range cookies {
			req.AddCookie(c)
		}
	}
	second := get(app, "/projects/", withSession)
	assert.Contains(t, second.Body.String(), "101 views")
	assert.Equal(t, 1, inc.Calls())
}

func TestVisitorCounterFailureHidesCounter(t *testing.T) {
	inc := &fakeCounter{err: errors.New("counter down")}
	app := newTestApp(t, siteData, inc)

	rec := get(app, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "view-counter")
}

func TestAPIDataset(t *testing.T) {
	app := newTestApp(t, siteData, nil)

	rec := get(app, "/api/profile", func(req *http.Request) {
		req.Header.Set("Origin", "https://elsewhere.example")
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"firstName":"Alex","lastName":"Morgan","lead":"Cloud engineer."}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(app, "/api/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"endpoint":"missing"`)
}

func TestAPISearch(t *testing.T) {
	app := newTestApp(t, siteData, nil)

	rec := get(app, "/api/projects/search?q=cloud&filter=completed")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items    []map[string]any `json:"items"`
		Filters  []map[string]any `json:"filters"`
		Selected []string         `json:"selected"`
		Total    int              `json:"total"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "p1", resp.Items[0]["id"])
	assert.Len(t, resp.Filters, 2)
	assert.Equal(t, []string{"completed"}, resp.Selected)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.Count)

	rec = get(app, "/api/profile/search")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedAndSitemap(t *testing.T) {
	app := newTestApp(t, siteData, nil)

	feed := get(app, "/feed.xml")
	require.Equal(t, http.StatusOK, feed.Code)
	assert.Contains(t, feed.Body.String(), "<title>Post A</title>")
	assert.Contains(t, feed.Body.String(), "<link>https://example.com/blog/a/</link>")
	assert.Contains(t, feed.Body.String(), "<pubDate>Wed, 01 May 2024 00:00:00 +0000</pubDate>")

	sm := get(app, "/sitemap.xml")
	require.Equal(t, http.StatusOK, sm.Code)
	assert.Contains(t, sm.Body.String(), "<loc>https://example.com/projects/p1/</loc>")
	assert.Contains(t, sm.Body.String(), "<loc>https://example.com/blog/c/</loc>")
}

func TestRobotsFallback(t *testing.T) {
	app := newTestApp(t, siteData, nil)
	rec := get(app, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://example.com/sitemap.xml")
}

func TestEmbeddedDataServed(t *testing.T) {
	app := New(SiteConfig{SessionSecret: "s", CounterDisabled: true})
	require.NoError(t, app.Setup())
	defer app.Close()

	rec := get(app, "/api/projects/search?filter=completed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)
}

func TestHostedCounter(t *testing.T) {
	app := New(SiteConfig{
		SessionSecret:       "s",
		CounterDatabasePath: filepath.Join(t.TempDir(), "counter.db"),
	})
	require.NoError(t, app.Setup())
	defer app.Close()

	page := get(app, "/")
	assert.Contains(t, page.Body.String(), "1 views")

	req := httptest.NewRequest(http.MethodPost, "/api/counter/increment", nil)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: My Folio
api_url: https://api.example.com
request_timeout: 3s
counter_disabled: true
`), 0o644))
	t.Setenv("FOLIO_SITE_NAME", "From Env")
	t.Setenv("FOLIO_DEBUG", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Name)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.CounterDisabled)
	assert.True(t, cfg.Debug)

	cfg.setDefaults()
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.CounterURL)
}

func TestLoadConfigMissingFileAndBadEnv(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)

	t.Setenv("FOLIO_COOKIE_SECURE", "not-a-bool")
	_, err = LoadConfig("")
	assert.Error(t, err)
}
