// Package rest implements source.Store against the hackhub HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackhub/internal/api"
	"hackhub/internal/domain"
	"hackhub/internal/source"
)

// ErrStatus is wrapped into errors for non-2xx responses
var ErrStatus = errors.New("unexpected status")

// Client talks to a remote hackhub server
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

var _ source.Store = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds every request. Default: 10s.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rest: base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListEvents fetches GET /api/events
func (c *Client) ListEvents(ctx context.Context, opts source.ListOptions) ([]*domain.Event, error) {
	q := url.Values{}
	if !opts.Status.IsAll() {
		q.Set("status", string(opts.Status))
	}
	setLimit(q, opts.Limit)
	return getList[*domain.Event](ctx, c, "/api/events", q)
}

// ListArticles fetches GET /api/articles
func (c *Client) ListArticles(ctx context.Context, opts source.ListOptions) ([]*domain.Article, error) {
	q := url.Values{}
	if !opts.Category.IsAll() {
		q.Set("category", string(opts.Category))
	}
	setLimit(q, opts.Limit)
	return getList[*domain.Article](ctx, c, "/api/articles", q)
}

// SearchEvents fetches GET /api/events/search
func (c *Client) SearchEvents(ctx context.Context, term string, limit int) ([]*domain.Event, error) {
	q := url.Values{"q": {term}}
	setLimit(q, limit)
	return getList[*domain.Event](ctx, c, "/api/events/search", q)
}

// SearchArticles fetches GET /api/articles/search
func (c *Client) SearchArticles(ctx context.Context, term string, limit int) ([]*domain.Article, error) {
	q := url.Values{"q": {term}}
	setLimit(q, limit)
	return getList[*domain.Article](ctx, c, "/api/articles/search", q)
}

func setLimit(q url.Values, n int) {
	if n > 0 {
		q.Set("limit", strconv.Itoa(min(n, api.MaxLimit)))
	}
}

func getList[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	u := c.base.JoinPath(path)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(api.RequestIDHeader, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body api.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		c.logger.Warn("api request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", reqID),
			zap.String("error", body.Error))
		if body.Error != "" {
			return nil, fmt.Errorf("rest: GET %s: %w %d: %s", path, ErrStatus, resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("rest: GET %s: %w %d", path, ErrStatus, resp.StatusCode)
	}

	var out api.ListResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("rest: decode %s: %w", path, err)
	}
	return out.Data, nil
}
