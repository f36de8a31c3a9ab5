// Package api is the REST client of the case-management backend. Every call
// forwards the caller's bearer token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"terapia/internal/cache"
	"terapia/internal/core"
	"terapia/internal/ports"
)

var (
	ErrNoToken      = ports.ErrNoToken
	ErrUnauthorized = ports.ErrUnauthorized
)

// StatusError is a non-2xx answer other than 401/403.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return "unexpected error"
	}
	return e.Body
}

// Observer receives the outcome of every upstream call.
type Observer func(endpoint, outcome string, elapsed time.Duration)

type Client struct {
	baseURL    string
	httpClient *http.Client
	users      cache.Cache[core.User]
	observe    Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserCache caches /api/user/me answers per token.
func WithUserCache(users cache.Cache[core.User]) Option {
	return func(c *Client) { c.users = users }
}

// WithObserver reports upstream call outcomes, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface checks.
var (
	_ ports.PatientStore = (*Client)(nil)
	_ ports.ProgramStore = (*Client)(nil)
	_ ports.RecordStore  = (*Client)(nil)
	_ ports.ContactStore = (*Client)(nil)
	_ ports.StatusStore  = (*Client)(nil)
	_ ports.UserReader   = (*Client)(nil)
)

type call struct {
	endpoint string // metrics label, e.g. "patient.list"
	method   string
	path     string
	query    url.Values
	body     any
	out      any
}

func (c *Client) do(ctx context.Context, token string, cl call) error {
	if token == "" {
		return ErrNoToken
	}

	start := time.Now()
	err := c.send(ctx, token, cl)
	if c.observe != nil {
		c.observe(cl.endpoint, outcome(err), time.Since(start))
	}
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		slog.WarnContext(ctx, "Upstream API call failed",
			"endpoint", cl.endpoint,
			"method", cl.method,
			"path", cl.path,
			"error", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, token string, cl call) error {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", cl.endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", cl.endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if cl.out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, cl.out); err != nil {
		return fmt.Errorf("decode %s response: %w", cl.endpoint, err)
	}
	return nil
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &se):
		return "status_error"
	default:
		return "transport_error"
	}
}
