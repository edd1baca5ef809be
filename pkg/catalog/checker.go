package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Pinger reports whether a catalog backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the SQLite connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Ping sends a HEAD request to the catalog base URL. Any status below 400
// counts as reachable.
func (h *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.base+"/products", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("HEAD %s: %w", h.base, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HEAD %s: HTTP %d", h.base, resp.StatusCode)
	}
	return nil
}

// Status is the outcome of the last availability check.
type Status struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker probes the catalog periodically and keeps the last result for the
// health endpoint.
type Checker struct {
	target   Pinger
	logger   *slog.Logger
	interval time.Duration

	mu   sync.RWMutex
	last Status
}

// NewChecker creates a Checker that probes target every interval.
func NewChecker(target Pinger, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{target: target, logger: logger, interval: interval}
}

// Start runs an immediate check then repeats every interval until ctx is
// cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check probes the catalog once and records the result.
func (c *Checker) Check(ctx context.Context) Status {
	st := Status{OK: true, CheckedAt: time.Now()}
	if err := c.target.Ping(ctx); err != nil {
		st = Status{Error: err.Error(), CheckedAt: st.CheckedAt}
	}

	c.mu.Lock()
	wasOK := c.last.OK || c.last.CheckedAt.IsZero()
	c.last = st
	c.mu.Unlock()

	switch {
	case !st.OK:
		c.logger.Warn("catalog unreachable", "error", st.Error)
	case !wasOK:
		c.logger.Info("catalog reachable again")
	}
	return st
}

// Last returns the most recent result, the zero Status before any check.
func (c *Checker) Last() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}
