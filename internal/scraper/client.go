// Package scraper talks to the external lead-scraping service.
//
// The service is fire-and-forget: Trigger asks it to start a job and only
// learns whether the job was accepted.  Progress is observed by polling
// Status until it reports `active: false`.  No call is retried here; the
// operator retries by hand.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanizio/demosite/internal/config"
	"github.com/yanizio/demosite/internal/metrics"
)

var (
	// ErrUpstreamUnavailable covers connection failures, non-2xx answers
	// and `success:false` replies.
	ErrUpstreamUnavailable = errors.New("scraper unavailable")
	// ErrInvalidRequest means the trigger payload names no target.
	ErrInvalidRequest = errors.New("invalid scrape request")
)

const defaultTimeout = 10 * time.Second

// Request selects what to scrape: either a known location, or a map
// viewport.  CategoryID is always required.
type Request struct {
	LocationID *int64   `json:"locationId,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	Zoom       *int     `json:"zoom,omitempty"`
	CategoryID int64    `json:"categoryId"`
}

// Validate checks that exactly one targeting form is present.
func (r Request) Validate() error {
	if r.CategoryID <= 0 {
		return fmt.Errorf("%w: categoryId is required", ErrInvalidRequest)
	}
	byLocation := r.LocationID != nil
	byViewport := r.Lat != nil || r.Lng != nil || r.Zoom != nil
	switch {
	case byLocation && byViewport:
		return fmt.Errorf("%w: use locationId or lat/lng/zoom, not both", ErrInvalidRequest)
	case byLocation:
		return nil
	case r.Lat == nil || r.Lng == nil || r.Zoom == nil:
		return fmt.Errorf("%w: lat, lng and zoom are required without locationId", ErrInvalidRequest)
	case *r.Lat < -90 || *r.Lat > 90 || *r.Lng < -180 || *r.Lng > 180:
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidRequest)
	}
	return nil
}

// Status is the polling answer.
type Status struct {
	Active    bool       `json:"active"`
	Message   string     `json:"message,omitempty"`
	Processed int        `json:"processed,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

type reply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client calls the scraper over HTTP.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// New builds a Client from cfg.  An empty BaseURL yields a client whose
// calls all fail with ErrUpstreamUnavailable.
func New(cfg config.Scraper) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Trigger asks the scraper to start a job.
func (c *Client) Trigger(ctx context.Context, r Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	var rep reply
	if err := c.do(ctx, http.MethodPost, "/api/scrape", bytes.NewReader(payload), &rep); err != nil {
		metrics.ScrapeTriggersTotal.WithLabelValues("unavailable").Inc()
		return err
	}
	if !rep.Success {
		metrics.ScrapeTriggersTotal.WithLabelValues("rejected").Inc()
		msg := rep.Error
		if msg == "" {
			msg = "job not started"
		}
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, msg)
	}
	metrics.ScrapeTriggersTotal.WithLabelValues("accepted").Inc()
	return nil
}

// Status polls the current job state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/api/scrape/status", nil, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if c.base == "" {
		return fmt.Errorf("%w: no base url configured", ErrUpstreamUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The service answers failures with the same {success,error} shape.
		var rep reply
		if json.Unmarshal(raw, &rep) == nil && rep.Error != "" {
			return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, rep.Error)
		}
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
