package counter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eringen/folio/datasource"
)

// Incrementer increments the site visit counter and returns the new count.
type Incrementer interface {
	Increment(ctx context.Context) (int64, error)
}

// Response is the body returned by the increment endpoint.
type Response struct {
	Count   int64  `json:"count"`
	Message string `json:"message,omitempty"`
}

// Client talks to a counter service at {BaseURL}/api/counter/increment.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client. A zero timeout means 5 seconds; the counter
// is decoration and must not hold a page render for long.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Increment posts one visit. A non-200 answer is a *datasource.RemoteFetchError.
func (c *Client) Increment(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/counter/increment", nil)
	if err != nil {
		return 0, fmt.Errorf("build counter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("counter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, &datasource.RemoteFetchError{
			Endpoint:   "counter/increment",
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}
	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode counter response: %w", err)
	}
	return out.Count, nil
}
