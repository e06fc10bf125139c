// Package datasource resolves logical endpoints ("projects", "blog", ...) to
// datasets, either from a remote API or from bundled static payloads.
//
// The branch between the two is an explicit Config value rather than
// something sensed from the environment, and static payloads are cached in
// an explicit Cache owned by the caller.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Mode selects where a Resolver reads datasets from.
type Mode int

const (
	ModeStatic Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "static"
}

// maxRemoteBody caps the size of a remote payload.
const maxRemoteBody = 8 << 20

// Config selects the data source. BaseURL is only used in ModeRemote.
// Timeout bounds remote requests; zero means no timeout.
type Config struct {
	Mode    Mode
	BaseURL string
	Timeout time.Duration
}

// StaticConfig reads bundled payloads.
func StaticConfig() Config {
	return Config{Mode: ModeStatic}
}

// RemoteConfig reads from {baseURL}/api/{endpoint}.
func RemoteConfig(baseURL string) Config {
	return Config{Mode: ModeRemote, BaseURL: strings.TrimRight(baseURL, "/")}
}

// ConfigFor returns RemoteConfig when apiURL is set and StaticConfig otherwise.
func ConfigFor(apiURL string) Config {
	if strings.TrimSpace(apiURL) == "" {
		return StaticConfig()
	}
	return RemoteConfig(strings.TrimSpace(apiURL))
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache shares cache between resolvers. Without it each Resolver gets
// its own.
func WithCache(c *Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithSource sets the static payload source.
func WithSource(s Source) Option {
	return func(r *Resolver) { r.source = s }
}

// WithHTTPClient sets the client used in remote mode.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithLogger sets the logger for resolution diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver returns datasets for endpoints.
type Resolver struct {
	cfg    Config
	cache  *Cache
	source Source
	client *http.Client
	logger *zap.Logger
}

// NewResolver creates a Resolver for cfg.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: cfg.Timeout}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Mode reports the configured mode.
func (r *Resolver) Mode() Mode { return r.cfg.Mode }

// Resolve returns the dataset for endpoint. Remote failures are
// *RemoteFetchError (non-success status) or transport errors; a missing or
// unreadable static payload is *DataUnavailableError.
func (r *Resolver) Resolve(ctx context.Context, endpoint string) (*Dataset, error) {
	if r.cfg.Mode == ModeRemote && r.cfg.BaseURL != "" {
		return r.fetchRemote(ctx, endpoint)
	}
	return r.loadStatic(ctx, endpoint)
}

// Fetch resolves endpoint and folds the outcome into a settled State. It
// never returns an error: failures are logged and reported as StatusFailed.
func (r *Resolver) Fetch(ctx context.Context, endpoint string) State {
	data, err := r.Resolve(ctx, endpoint)
	if err != nil {
		r.logger.Warn("resolve failed",
			zap.String("endpoint", endpoint),
			zap.Stringer("mode", r.cfg.Mode),
			zap.Error(err))
		return State{Status: StatusFailed, Err: err}
	}
	return State{Status: StatusReady, Data: data}
}

func (r *Resolver) loadStatic(ctx context.Context, endpoint string) (*Dataset, error) {
	if r.source == nil {
		return nil, &DataUnavailableError{Endpoint: endpoint, Err: errors.New("no static source configured")}
	}
	if !validEndpoint(endpoint) {
		return nil, &DataUnavailableError{Endpoint: endpoint, Err: errors.New("invalid endpoint name")}
	}
	return r.cache.Load(endpoint, func() (*Dataset, error) {
		raw, err := r.source.Read(ctx, endpoint)
		if err != nil {
			return nil, &DataUnavailableError{Endpoint: endpoint, Err: err}
		}
		data, err := NewDataset(endpoint, raw)
		if err != nil {
			return nil, &DataUnavailableError{Endpoint: endpoint, Err: err}
		}
		r.logger.Debug("static payload loaded", zap.String("endpoint", endpoint), zap.Int("bytes", len(raw)))
		return data, nil
	})
}

func (r *Resolver) fetchRemote(ctx context.Context, endpoint string) (*Dataset, error) {
	if !validEndpoint(endpoint) {
		return nil, &DataUnavailableError{Endpoint: endpoint, Err: errors.New("invalid endpoint name")}
	}
	u := r.cfg.BaseURL + "/api/" + url.PathEscape(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteFetchError{
			Endpoint:   endpoint,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	return NewDataset(endpoint, raw)
}
