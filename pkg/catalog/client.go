package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

const (
	clientAttempts = 3
	maxBodyBytes   = 8 << 20
)

// HTTPClient fetches candidates from a remote catalog service:
// GET <base>/products?<params> returning {"products": [...]}.
type HTTPClient struct {
	base    string
	client  *http.Client
	backoff time.Duration
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithBackoff sets the base retry delay, doubled on each attempt.
func WithBackoff(d time.Duration) ClientOption {
	return func(h *HTTPClient) { h.backoff = d }
}

// NewHTTPClient returns a client for the catalog at base.
func NewHTTPClient(base string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := &HTTPClient{
		base:    strings.TrimSuffix(base, "/"),
		client:  &http.Client{Timeout: timeout},
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch retries network errors and 5xx responses up to three attempts with
// exponential backoff. 4xx responses fail at once.
func (h *HTTPClient) Fetch(ctx context.Context, params map[string]string) ([]scoring.Candidate, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	target := h.base + "/products"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < clientAttempts; attempt++ {
		if attempt > 0 {
			backoff := h.backoff << uint(attempt-1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		products, retry, err := h.fetchOnce(ctx, target)
		if err == nil {
			return products, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s failed after %d attempts: %v", ErrUnavailable, target, clientAttempts, lastErr)
}

func (h *HTTPClient) fetchOnce(ctx context.Context, target string) ([]scoring.Candidate, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("HTTP %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("catalog %s: HTTP %d", target, resp.StatusCode)
	}

	var body struct {
		Products []scoring.Candidate `json:"products"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decode catalog response: %w", err)
	}
	return body.Products, false, nil
}
