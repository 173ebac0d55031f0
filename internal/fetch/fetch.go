// Package fetch performs plain HTTP retrieval of retailer pages with
// browser-like headers. Retry policy belongs to callers; this layer only
// enforces the hard timeout.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/suppscan/suppscan/internal/ratelimit"
)

const (
	defaultTimeout = 10 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Client fetches HTML documents over HTTP.
type Client struct {
	http    *resty.Client
	limiter ratelimit.Limiter
}

// New builds a client with the default 10s timeout.
func New() *Client {
	return NewWithTimeout(defaultTimeout)
}

// NewWithTimeout builds a client with a caller-chosen timeout, used by
// tests to exercise the timeout path quickly.
func NewWithTimeout(timeout time.Duration) *Client {
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", acceptHeader).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Client{http: http}
}

// WithLimiter paces requests through the limiter, used on paginated
// category walks. Returns the client for chaining.
func (c *Client) WithLimiter(l ratelimit.Limiter) *Client {
	c.limiter = l
	return c
}

// FetchHTML GETs the URL and returns the body. The request is aborted at
// the client timeout; a non-2xx response is an error carrying the status.
func (c *Client) FetchHTML(ctx context.Context, url string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode())
	}

	return string(resp.Body()), nil
}
