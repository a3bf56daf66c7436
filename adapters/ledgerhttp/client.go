// Package ledgerhttp talks to a remote transaction ledger service over
// its JSON HTTP API. It satisfies the engine.Ledger interface so the
// engine never holds monetary state itself.
package ledgerhttp

import (
	"bytes"
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

	"seasonkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client is an HTTP client for the ledger service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a ledger client targeting the given baseURL
// (e.g., http://ledger.internal/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// Transfer posts a transaction and returns the ledger's transaction id.
func (c *Client) Transfer(ctx context.Context, from, to core.AccountID, amount int64, typ core.TransactionType, description string) (string, error) {
	payload := map[string]any{
		"from_account": from,
		"to_account":   to,
		"amount":       amount,
		"type":         typ,
		"description":  description,
	}
	var body struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := c.post(ctx, "/transactions", payload, &body); err != nil {
		return "", fmt.Errorf("ledger transfer: %w", err)
	}
	return body.TransactionID, nil
}

// Balance returns the current balance of one account.
func (c *Client) Balance(ctx context.Context, account core.AccountID) (int64, error) {
	var body struct {
		Balance int64 `json:"balance"`
	}
	path := fmt.Sprintf("/accounts/%d/balance", account)
	if err := c.get(ctx, path, nil, &body); err != nil {
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return body.Balance, nil
}

// TopContributors returns, per account, the top contributors by total
// amount since the given time. A zero since means all time.
func (c *Client) TopContributors(ctx context.Context, accounts []core.AccountID, limit int, since time.Time) (map[core.AccountID][]core.Contributor, error) {
	query := url.Values{}
	for _, a := range accounts {
		query.Add("account", strconv.FormatInt(int64(a), 10))
	}
	query.Set("limit", strconv.Itoa(limit))
	if !since.IsZero() {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}

	var body struct {
		Accounts map[string][]core.Contributor `json:"accounts"`
	}
	if err := c.get(ctx, "/contributors", query, &body); err != nil {
		return nil, fmt.Errorf("ledger contributors: %w", err)
	}

	out := make(map[core.AccountID][]core.Contributor, len(body.Accounts))
	for key, contributors := range body.Accounts {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ledger contributors: bad account key %q", key)
		}
		out[core.AccountID(id)] = contributors
	}
	return out, nil
}

// BalanceHistory returns a time-bucketed balance summary per account.
func (c *Client) BalanceHistory(ctx context.Context, accounts []core.AccountID, since time.Time, window core.HistoryWindow) (map[core.AccountID][]core.BalancePoint, error) {
	query := url.Values{}
	for _, a := range accounts {
		query.Add("account", strconv.FormatInt(int64(a), 10))
	}
	query.Set("since", since.UTC().Format(time.RFC3339))
	query.Set("window", string(window))

	var body struct {
		Accounts map[string][]core.BalancePoint `json:"accounts"`
	}
	if err := c.get(ctx, "/balance-history", query, &body); err != nil {
		return nil, fmt.Errorf("ledger balance history: %w", err)
	}

	out := make(map[core.AccountID][]core.BalancePoint, len(body.Accounts))
	for key, points := range body.Accounts {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ledger balance history: bad account key %q", key)
		}
		out[core.AccountID(id)] = points
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
