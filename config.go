package folio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio/counter"
	"github.com/eringen/folio/datasource"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Portfolio")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD and the footer

	Addr    string `yaml:"addr"`     // Listen address (default ":3000")
	DataDir string `yaml:"data_dir"` // Static JSON directory; empty serves the embedded data

	APIURL     string `yaml:"api_url"`     // Remote data API; empty means static mode
	CounterURL string `yaml:"counter_url"` // Counter service (default "http://localhost:8000")

	CounterDatabasePath string `yaml:"counter_database_path"` // Host the counter in-process from this SQLite file
	CounterDisabled     bool   `yaml:"counter_disabled"`

	SessionSecret string `yaml:"session_secret"` // Required: visitor session secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	RequestTimeout time.Duration `yaml:"request_timeout"` // Outbound HTTP timeout (default 10s)
	Debug          bool          `yaml:"debug"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.CounterURL == "" {
		c.CounterURL = "http://localhost:8000"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
}

// LoadConfig reads a YAML config file and applies FOLIO_* environment
// overrides on top. A missing file is not an error.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("folio: read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("folio: parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FOLIO_* environment variables that are set.
func (c *SiteConfig) ApplyEnv() error {
	strs := map[string]*string{
		"FOLIO_SITE_NAME":             &c.Name,
		"FOLIO_SITE_URL":              &c.URL,
		"FOLIO_SITE_DESCRIPTION":      &c.Description,
		"FOLIO_SITE_AUTHOR":           &c.Author,
		"FOLIO_ADDR":                  &c.Addr,
		"FOLIO_DATA_DIR":              &c.DataDir,
		"FOLIO_API_URL":               &c.APIURL,
		"FOLIO_COUNTER_URL":           &c.CounterURL,
		"FOLIO_COUNTER_DATABASE_PATH": &c.CounterDatabasePath,
		"FOLIO_SESSION_SECRET":        &c.SessionSecret,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	bools := map[string]*bool{
		"FOLIO_COUNTER_DISABLED": &c.CounterDisabled,
		"FOLIO_COOKIE_SECURE":    &c.CookieSecure,
		"FOLIO_DEBUG":            &c.Debug,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("folio: %s: %w", key, err)
		}
		*dst = b
	}
	if v := os.Getenv("FOLIO_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("folio: FOLIO_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger sets the application logger (default: a no-op logger).
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithResolver replaces the resolver built from the config.
func WithResolver(r *datasource.Resolver) Option {
	return func(a *App) {
		a.Resolver = r
	}
}

// WithIncrementer replaces the visitor counter built from the config.
func WithIncrementer(inc counter.Incrementer) Option {
	return func(a *App) {
		a.counter = inc
	}
}

// WithViews replaces the default templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
