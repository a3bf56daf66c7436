// Package purge invalidates tagged entries in a downstream CDN or edge
// cache after leaderboard snapshots change.
package purge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts tag invalidations to a purge endpoint.
type Client struct {
	client   *http.Client
	endpoint string
	token    string
}

// Option configures a Client.
type Option func(*Client)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(p *Client) {
		if c != nil {
			p.client = c
		}
	}
}

// WithToken adds an Authorization: Bearer token to purge requests.
func WithToken(token string) Option {
	return func(p *Client) { p.token = token }
}

// New creates a purge client targeting the given endpoint.
func New(endpoint string, opts ...Option) *Client {
	p := &Client{
		client:   &http.Client{Timeout: 2 * time.Second},
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Purge posts the tag list. The engine treats purge failures as
// non-fatal, so an error here only ends up in the logs.
func (p *Client) Purge(ctx context.Context, tags []string) error {
	if len(tags) == 0 || p.endpoint == "" {
		return nil
	}
	body, err := json.Marshal(map[string][]string{"tags": tags})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("purge endpoint returned %d", resp.StatusCode)
	}
	return nil
}
