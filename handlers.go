package folio

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/datasource"
	"github.com/eringen/folio/search"
	"github.com/eringen/folio/views"
)

// kind describes a searchable collection page.
type kind struct {
	name        string
	itemsKey    string
	title       string
	placeholder string
	filterType  string
	strategy    search.Strategy
}

var (
	kindProjects = kind{
		name:        "projects",
		itemsKey:    "items",
		title:       "Projects",
		placeholder: "Search projects by name, tech, or description...",
		filterType:  "status",
		strategy:    search.ProjectsByStatus(),
	}
	kindBlog = kind{
		name:        "blog",
		itemsKey:    "items",
		title:       "Blog",
		placeholder: "Search posts by title, tag, or summary...",
		filterType:  "tag",
		strategy:    search.PostsByTag(),
	}
	searchable = map[string]kind{
		kindProjects.name: kindProjects,
		kindBlog.name:     kindBlog,
	}
)

// resumeSections are loaded concurrently for the home page.
var resumeSections = []string{"profile", "skills", "experience", "certifications", "education"}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// page renders body inside the layout, counting the visit.
func (a *App) page(c echo.Context, code int, active string, meta views.PageMeta, body templ.Component) error {
	p := views.Page{
		Site:   a.site(),
		Meta:   meta,
		Active: active,
		Views:  a.visitorCount(c),
	}
	return RenderStatus(c, code, a.Views.Layout(p, body))
}

func (a *App) handleResume(c echo.Context) error {
	ctx := c.Request().Context()

	loads := make([]*datasource.View, len(resumeSections))
	for i, endpoint := range resumeSections {
		v := a.Resolver.NewView(nil)
		defer v.Close()
		v.Load(ctx, endpoint)
		loads[i] = v
	}
	data := make(map[string]*datasource.Dataset, len(resumeSections))
	for i, v := range loads {
		if st := v.Wait(ctx); st.Status == datasource.StatusReady {
			data[resumeSections[i]] = st.Data
		}
	}

	r := views.Resume{
		Profile:        object(data["profile"]),
		Skills:         data["skills"].Collection("skillCategories"),
		Experience:     data["experience"].Collection("positions"),
		Certifications: object(data["certifications"]),
		Education:      data["education"].Collection("degrees"),
	}
	meta := views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
	}
	return a.page(c, http.StatusOK, "resume", meta, a.Views.Resume(r))
}

// object returns the dataset's top-level JSON object, nil otherwise.
func object(ds *datasource.Dataset) search.Item {
	if ds == nil {
		return nil
	}
	m, _ := ds.Value().(map[string]any)
	return m
}

func (a *App) handleListing(k kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := a.listing(c, k)
		if isHTMX(c) && c.QueryParam("partial") == "results" {
			return Render(c, a.Views.Results(l))
		}
		meta := views.PageMeta{
			Title: k.title,
			URL:   BuildURL(a.Config.URL, k.name),
		}
		return a.page(c, http.StatusOK, k.name, meta, a.Views.Listing(l))
	}
}

// listing resolves k's collection and applies the request's query to it.
func (a *App) listing(c echo.Context, k kind) views.Listing {
	l := views.Listing{
		Kind:        k.name,
		Title:       k.title,
		Placeholder: k.placeholder,
		FilterType:  k.filterType,
		Query:       search.ParseQuery(c.QueryParams()),
	}
	st := a.Resolver.Fetch(c.Request().Context(), k.name)
	if st.Status != datasource.StatusReady {
		l.Unavailable = true
		return l
	}
	e := search.NewEngine(st.Data.Collection(k.itemsKey), k.strategy)
	l.Query.Apply(e)
	l.Query = search.QueryOf(e)
	l.Options = e.AvailableFilterOptions()
	l.Items = e.FilteredView()
	l.Total = e.Total()
	return l
}

func (a *App) handleDetail(k kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if u, err := url.PathUnescape(id); err == nil {
			id = u
		}
		st := a.Resolver.Fetch(c.Request().Context(), k.name)
		if st.Status != datasource.StatusReady {
			return a.page(c, http.StatusOK, k.name, views.PageMeta{Title: k.title}, a.Views.Unavailable())
		}
		items := st.Data.Collection(k.itemsKey)
		var item search.Item
		for _, it := range items {
			if views.ItemID(k.name, it) == id {
				item = it
				break
			}
		}
		if item == nil {
			return a.page(c, http.StatusNotFound, k.name, views.PageMeta{Title: "Not Found"}, a.Views.NotFound())
		}

		meta := views.PageMeta{
			Title:       search.String(item, "title"),
			Description: search.String(item, "excerpt"),
			URL:         BuildURL(a.Config.URL, k.name, id),
			OGType:      "article",
		}
		if k.name == kindBlog.name {
			meta.JSONLD = views.BlogPostingJsonLD(a.site(), item)
			return a.page(c, http.StatusOK, k.name, meta, a.Views.Post(item, views.RelatedPosts(item, items)))
		}
		return a.page(c, http.StatusOK, k.name, meta, a.Views.Project(item))
	}
}

func (a *App) handleAPIDataset(c echo.Context) error {
	ds, err := a.Resolver.Resolve(c.Request().Context(), c.Param("endpoint"))
	if err != nil {
		return a.apiError(c, c.Param("endpoint"), err)
	}
	return c.JSONBlob(http.StatusOK, ds.Raw)
}

type searchResponse struct {
	Items    search.Collection     `json:"items"`
	Filters  []search.FilterOption `json:"filters"`
	Selected []string              `json:"selected"`
	Total    int                   `json:"total"`
	Count    int                   `json:"count"`
}

func (a *App) handleAPISearch(c echo.Context) error {
	k, ok := searchable[c.Param("endpoint")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "endpoint is not searchable")
	}
	ds, err := a.Resolver.Resolve(c.Request().Context(), k.name)
	if err != nil {
		return a.apiError(c, k.name, err)
	}
	e := search.NewEngine(ds.Collection(k.itemsKey), k.strategy)
	search.ParseQuery(c.QueryParams()).Apply(e)

	resp := searchResponse{
		Items:    e.FilteredView(),
		Filters:  e.AvailableFilterOptions(),
		Selected: e.SelectedFilters(),
		Total:    e.Total(),
	}
	if resp.Items == nil {
		resp.Items = search.Collection{}
	}
	if resp.Filters == nil {
		resp.Filters = []search.FilterOption{}
	}
	if resp.Selected == nil {
		resp.Selected = []string{}
	}
	resp.Count = len(resp.Items)
	return c.JSON(http.StatusOK, resp)
}

// apiError maps resolver failures to JSON: 404 when the endpoint has no
// data, 502 when the remote API failed.
func (a *App) apiError(c echo.Context, endpoint string, err error) error {
	code := http.StatusBadGateway
	if errors.Is(err, datasource.ErrUnavailable) {
		code = http.StatusNotFound
	}
	a.Logger.Warn("api request failed", zap.String("endpoint", endpoint), zap.Int("status", code), zap.Error(err))
	return c.JSON(code, map[string]string{
		"error":    http.StatusText(code),
		"endpoint": endpoint,
	})
}

// collection resolves k for feeds and sitemaps; failures yield nil.
func (a *App) collection(c echo.Context, k kind) search.Collection {
	st := a.Resolver.Fetch(c.Request().Context(), k.name)
	if st.Status != datasource.StatusReady {
		return nil
	}
	return st.Data.Collection(k.itemsKey)
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.collection(c, kindProjects), a.collection(c, kindBlog))
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.collection(c, kindBlog))
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := "User-agent: *\nAllow: /\n\nSitemap: " + strings.TrimSuffix(a.Config.URL, "/") + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	page := views.Page{Site: a.site()}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		page.Meta.Title = "Not Found"
		_ = RenderStatus(c, http.StatusNotFound, a.Views.Layout(page, a.Views.NotFound()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		page.Meta.Title = "Error"
		_ = RenderStatus(c, code, a.Views.Layout(page, a.Views.ServerError()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
