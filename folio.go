// Package folio is a portfolio, resume and blog server built with Go, Echo,
// and templ. It resolves its content from a remote API or bundled JSON,
// serves searchable project and post lists, and counts visitors.
//
// Templates are plain templ components held in ViewFuncs, so a site can
// replace any of them while folio keeps the handler logic, middleware and
// data loading.
package folio

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/counter"
	"github.com/eringen/folio/datasource"
	"github.com/eringen/folio/search"
	"github.com/eringen/folio/views"
)

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Layout      func(p views.Page, body templ.Component) templ.Component
	Resume      func(r views.Resume) templ.Component
	Listing     func(l views.Listing) templ.Component
	Results     func(l views.Listing) templ.Component
	Project     func(p search.Item) templ.Component
	Post        func(post search.Item, related search.Collection) templ.Component
	Unavailable func() templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews returns the built-in templates from the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Layout:  views.Layout,
		Resume:  views.ResumePage,
		Listing: views.ListingPage,
		Results: views.Results,
		Project: views.ProjectDetail,
		Post:    views.PostDetail,
		Unavailable: func() templ.Component {
			return views.EmptyState("fas fa-database", "No data available",
				"This content could not be loaded. Please try again later.", "")
		},
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App is the central folio application. It wires together the resolver,
// visitor counter, handlers, middleware, and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Resolver *datasource.Resolver
	Views    ViewFuncs
	Logger   *zap.Logger

	counter        counter.Incrementer
	counterStore   *counter.Store
	counterHandler *counter.Handler
	customRoutes   []func(*App)
	staticDir      string
	ready          bool
}

// New creates a folio App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     DefaultViews(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}

	return a
}

// Setup builds the resolver and counter, then installs middleware and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}

	if a.Resolver == nil {
		r, err := a.newResolver()
		if err != nil {
			return err
		}
		a.Resolver = r
	}

	if a.counter == nil && !a.Config.CounterDisabled {
		if a.Config.CounterDatabasePath != "" {
			store, err := counter.NewStore(a.Config.CounterDatabasePath)
			if err != nil {
				return fmt.Errorf("folio: init counter store: %w", err)
			}
			a.counterStore = store
			a.counterHandler = counter.NewHandler(store, a.Logger.Named("counter"))
			a.counter = store
		} else {
			a.counter = counter.NewClient(a.Config.CounterURL, a.Config.RequestTimeout)
		}
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) newResolver() (*datasource.Resolver, error) {
	cfg := datasource.ConfigFor(a.Config.APIURL)
	cfg.Timeout = a.Config.RequestTimeout

	var fsys fs.FS
	if a.Config.DataDir != "" {
		fsys = os.DirFS(a.Config.DataDir)
	} else {
		sub, err := fs.Sub(EmbeddedData, "data")
		if err != nil {
			return nil, fmt.Errorf("folio: embedded data: %w", err)
		}
		fsys = sub
	}

	a.Logger.Info("data source",
		zap.Stringer("mode", cfg.Mode),
		zap.String("api_url", cfg.BaseURL),
		zap.String("data_dir", a.Config.DataDir),
	)
	return datasource.NewResolver(cfg,
		datasource.WithSource(datasource.NewFSSource(fsys)),
		datasource.WithLogger(a.Logger.Named("datasource")),
	), nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleResume)
	e.GET("/projects/", a.handleListing(kindProjects))
	e.GET("/projects/:id/", a.handleDetail(kindProjects))
	e.GET("/blog/", a.handleListing(kindBlog))
	e.GET("/blog/:id/", a.handleDetail(kindBlog))

	if a.counterHandler != nil {
		a.counterHandler.RegisterRoutes(e)
	}
	e.GET("/api/:endpoint", a.handleAPIDataset)
	e.GET("/api/:endpoint/search", a.handleAPISearch)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.counterHandler != nil {
		a.counterHandler.Close()
	}
	if a.counterStore != nil {
		if err := a.counterStore.Close(); err != nil {
			return err
		}
	}
	_ = a.Logger.Sync()
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("folio: required environment variable %s is not set", key)
	}
	return v
}
