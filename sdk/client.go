// Package sdk is a Go client for the traffic monitoring backend's REST API.
//
// Basic usage:
//
//	c := sdk.NewClient("http://127.0.0.1:8000/api")
//	tok, err := c.Login(ctx, "admin", "secret")
//
// Authenticated calls go through a client bound to a token holder:
//
//	api := c.Bind(session.Bind(store, sess))
//	incidents, err := api.Incidents(ctx)
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is where the backend listens in a default deployment.
const DefaultBaseURL = "http://127.0.0.1:8000/api"

// maxErrorBody caps how much of a failed response is read for its detail.
const maxErrorBody = 64 << 10

// TokenHolder owns the bearer token for one operator session.
type TokenHolder interface {
	// Token returns the bearer token, or "" when there is none.
	Token() string
	// Clear drops the token and reports whether this call removed it.
	Clear(ctx context.Context) bool
}

// Observer receives one callback per completed HTTP exchange. status is 0
// when no response was received.
type Observer func(method, endpoint string, status int, elapsed time.Duration)

// Client calls the backend. A zero-holder client can only Login and Health.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	holder         TokenHolder
	onUnauthorized func(ctx context.Context)
	logger         *slog.Logger
	observe        Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenHolder binds the client to a session from the start.
func WithTokenHolder(h TokenHolder) Option {
	return func(c *Client) { c.holder = h }
}

// WithUnauthorizedHook sets the callback fired when a 401 clears the
// session. It runs at most once per cleared session.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the logger for request failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithObserver sets a per-request metrics callback.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient creates a client for the backend at baseURL. The default
// transport is traced with OpenTelemetry and has no timeout; callers bound
// requests through their context.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Bind returns a copy of c that authenticates with h.
func (c *Client) Bind(h TokenHolder) *Client {
	cp := *c
	cp.holder = h
	return &cp
}

// OnUnauthorized returns a copy of c whose unauthorized hook is fn.
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) *Client {
	cp := *c
	cp.onUnauthorized = fn
	return &cp
}

// Call performs one request against endpoint (relative to the base URL) and
// decodes a JSON response into out when out is non-nil. body may be nil,
// url.Values (sent form-encoded) or any JSON-marshalable value.
//
// A 401 clears the bound session, fires the unauthorized hook once and
// returns ErrUnauthorized.
func (c *Client) Call(ctx context.Context, method, endpoint string, body, out any) error {
	resp, err := c.send(ctx, method, endpoint, body, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		c.expire(ctx)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) expire(ctx context.Context) {
	if c.holder == nil || !c.holder.Clear(ctx) {
		return
	}
	c.logger.Info("session cleared after 401")
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any, auth bool) (*http.Response, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth && c.holder != nil {
		if tok := c.holder.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if c.observe != nil {
		c.observe(method, endpoint, status, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("backend request failed", "method", method, "endpoint", endpoint, "error", err)
		return nil, &TransportError{Op: method + " " + endpoint, Err: err}
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
}
