package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/salon-booking-board/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client issues the two read calls the board needs. The backend exposes a
// single GET endpoint switched by the "action" query parameter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.BoardMetrics
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.BoardMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient constructs a backend client. An empty baseURL yields a client
// whose calls fail with ErrNotConfigured.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSpace(baseURL),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a backend URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// GetSettings reads the shop settings.
func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var payload settingsPayload
	status, err := c.getJSON(ctx, ActionGetSettings, nil, &payload)
	if err != nil {
		return Settings{}, &FetchError{Kind: KindSettings, StatusCode: status, Err: err}
	}
	return payload.settings(), nil
}

// GetBookings returns the booked "HH:MM" times for the calendar day of date.
// The result is never nil on success.
func (c *Client) GetBookings(ctx context.Context, date time.Time) ([]string, error) {
	day := date.Format(DateLayout)
	params := url.Values{}
	params.Set("date", day)

	var payload bookingsPayload
	status, err := c.getJSON(ctx, ActionGetBookings, params, &payload)
	if err != nil {
		return nil, &FetchError{Kind: KindBookings, Date: day, StatusCode: status, Err: err}
	}
	if payload.BookedTimes == nil {
		return []string{}, nil
	}
	return payload.BookedTimes, nil
}

func (c *Client) getJSON(ctx context.Context, action string, params url.Values, out reporter) (status int, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveFetch(action, outcome(err), time.Since(start))
	}()

	if !c.Configured() {
		return 0, ErrNotConfigured
	}

	endpoint, err := c.endpoint(action, params)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("backend non-2xx response", "action", action, "status", resp.StatusCode, "body", msg)
		return resp.StatusCode, fmt.Errorf("%w %d", ErrUpstreamStatus, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if msg := out.reportedError(); msg != "" {
		c.logger.Warn("backend reported error", "action", action, "error", msg)
		return resp.StatusCode, fmt.Errorf("%w: %s", ErrReported, msg)
	}
	return resp.StatusCode, nil
}

// endpoint appends action and params to the base URL, keeping any query the
// base URL already carries.
func (c *Client) endpoint(action string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
