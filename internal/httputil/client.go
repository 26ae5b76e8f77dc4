// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// Client paces and retries requests to one remote service. It is safe for
// concurrent use; all callers share one token bucket, and every attempt,
// retries included, takes a token.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	MaxRetries int
}

// pacedTransport waits on a shared limiter before each round trip.
type pacedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewClient builds a Client from cfg. A zero RequestsPerSecond disables pacing.
func NewClient(cfg types.HTTPConfig) *Client {
	c := &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.HTTP.Transport = &pacedTransport{
			base:    http.DefaultTransport,
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		}
	}
	return c
}

// Get issues a paced, retried GET and returns the response. The caller
// closes the body.
func (c *Client) Get(ctx context.Context, url string, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
}
