package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"seasonkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the SeasonKit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
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

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// EventData fetches the display data for one event, including the cover
// image and the team scores.
func (c *Client) EventData(ctx context.Context, event string) (core.EventData, error) {
	var data core.EventData
	err := c.getJSON(ctx, c.eventURL(event, ""), &data)
	return data, err
}

// TeamScores fetches the current per-team totals for an event, ranked.
func (c *Client) TeamScores(ctx context.Context, event string) ([]core.TeamScore, error) {
	var scores []core.TeamScore
	err := c.getJSON(ctx, c.eventURL(event, "/scores"), &scores)
	return scores, err
}

// TeamScoreHistory fetches bucketed score history. An empty window defaults
// to daily buckets on the server.
func (c *Client) TeamScoreHistory(ctx context.Context, event string, window core.HistoryWindow) ([]core.TeamScoreHistory, error) {
	u := c.eventURL(event, "/scores/history")
	if window != "" {
		u += "?window=" + url.QueryEscape(string(window))
	}
	var history []core.TeamScoreHistory
	err := c.getJSON(ctx, u, &history)
	return history, err
}

// TopContributors fetches the top donors per team and overall. A limit of 0
// uses the server default.
func (c *Client) TopContributors(ctx context.Context, event string, limit int) (core.TopContributors, error) {
	u := c.eventURL(event, "/contributors")
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	var top core.TopContributors
	err := c.getJSON(ctx, u, &top)
	return top, err
}

// Rewards fetches the earnable rewards for an event.
func (c *Client) Rewards(ctx context.Context, event string) ([]core.Reward, error) {
	var rewards []core.Reward
	err := c.getJSON(ctx, c.eventURL(event, "/rewards"), &rewards)
	return rewards, err
}

// Partners fetches the recorded donation partners for an event.
func (c *Client) Partners(ctx context.Context, event string) ([]core.Partner, error) {
	var partners []core.Partner
	err := c.getJSON(ctx, c.eventURL(event, "/partners"), &partners)
	return partners, err
}

// UserData fetches a user's team assignment and progress within an event.
func (c *Client) UserData(ctx context.Context, event string, user core.UserID) (core.UserData, error) {
	var data core.UserData
	err := c.getJSON(ctx, c.eventURL(event, "/users/"+strconv.FormatInt(int64(user), 10)), &data)
	return data, err
}

// Donate records a donation for a user and returns the receipt.
func (c *Client) Donate(ctx context.Context, event string, user core.UserID, amount int64) (core.DonationReceipt, error) {
	body := map[string]any{"user_id": user, "amount": amount}
	var receipt core.DonationReceipt
	err := c.postJSON(ctx, c.eventURL(event, "/donations"), body, &receipt)
	return receipt, err
}

// RecordPartner registers a donation partner for an event.
func (c *Client) RecordPartner(ctx context.Context, event string, partner core.Partner) error {
	var resp okResponse
	if err := c.postJSON(ctx, c.eventURL(event, "/partners"), partner, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return errors.New("partner not recorded")
	}
	return nil
}

// SendEngagement submits an engagement signal fanned out to every active event.
func (c *Client) SendEngagement(ctx context.Context, signal core.EngagementSignal) error {
	var resp okResponse
	return c.postJSON(ctx, c.baseURL+"/engagement", signal, &resp)
}

// RecordPurchase submits a purchase fanned out to every active event.
func (c *Client) RecordPurchase(ctx context.Context, user core.UserID, amount int64) error {
	body := map[string]any{"user_id": user, "amount": amount}
	var resp okResponse
	return c.postJSON(ctx, c.baseURL+"/purchases", body, &resp)
}

// Health probes /healthz and returns status + registry check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.getJSON(ctx, c.baseURL+"/healthz", &hs)
	return hs, err
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) eventURL(event, suffix string) string {
	return fmt.Sprintf("%s/events/%s%s", c.baseURL, url.PathEscape(event), suffix)
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) postJSON(ctx context.Context, u string, body, target any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
