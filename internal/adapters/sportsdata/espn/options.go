package espn

import (
	"net/http"
	"time"

	"github.com/okian/truerecord/pkg/logger"
)

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithCookies sets the espn_s2 and SWID cookies private leagues require.
func WithCookies(espnS2, swid string) Option {
	return func(c *Client) {
		c.espnS2 = espnS2
		c.swid = swid
	}
}

// WithMaxRetries sets how often a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the base backoff; attempt k waits k*d.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
