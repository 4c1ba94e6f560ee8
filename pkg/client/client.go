package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/usestring/pairdiff/pkg/types"
)

const (
	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes int64 = 10 << 20
	// DefaultUserAgent is sent unless the request headers set a User-Agent.
	DefaultUserAgent = "pairdiff/1.0"
)

// Client sends the requests described by types.RequestSpec.
// It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodyBytes sets the response body limit. Zero or negative keeps the default.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// New creates a new client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:   http.DefaultClient,
		timeout:      DefaultTimeout,
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do sends the request described by spec and reads the full response.
// Any status code is a valid response. A response without a Content-Type
// header fails with ErrMissingContentType.
func (c *Client) Do(ctx context.Context, spec types.RequestSpec) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.BuildRequest(ctx, spec)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	method := req.Method
	wireURL := req.URL.String()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("method", method),
			slog.String("url", wireURL),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("executing request: timed out after %s: %w", c.timeout, err)
		}
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodyBytes)
	}

	slog.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("url", wireURL),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if len(resp.Header.Values("Content-Type")) == 0 {
		return nil, fmt.Errorf("%w (status %d)", ErrMissingContentType, resp.StatusCode)
	}

	return &Response{
		URL:         wireURL,
		StatusCode:  uint16(resp.StatusCode),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
