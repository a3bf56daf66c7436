package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "seasonkit/adapters/websocket"
	"seasonkit/core"
	"seasonkit/engine"
	"seasonkit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewMux builds an http.Handler exposing the seasonal event REST API and
// WebSocket stream.
// Routes:
//   - GET  {prefix}/events/{name}
//   - GET  {prefix}/events/{name}/scores
//   - GET  {prefix}/events/{name}/scores/history?window=day
//   - GET  {prefix}/events/{name}/contributors?limit=10
//   - GET  {prefix}/events/{name}/rewards
//   - GET  {prefix}/events/{name}/partners
//   - GET  {prefix}/events/{name}/users/{id}
//   - POST {prefix}/events/{name}/donations   {"user_id": 1, "amount": 50}
//   - POST {prefix}/events/{name}/partners    {"title": "...", "amount": 100}
//   - POST {prefix}/engagement                {"type": "...", "user_id": 1}
//   - POST {prefix}/purchases                 {"user_id": 1, "amount": 100}
//   - POST {prefix}/jobs/daily-reset
//   - POST {prefix}/jobs/leaderboard
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewMux(eng *engine.Engine, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, eng)
	})

	// WebSocket events
	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	// Engagement ingest
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/engagement"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		var body struct {
			Type    string         `json:"type"`
			UserID  core.UserID    `json:"user_id"`
			Payload map[string]any `json:"payload,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
			return
		}
		signal := core.EngagementSignal{Type: body.Type, UserID: body.UserID, Payload: body.Payload}
		if err := eng.ProcessEngagement(r.Context(), signal); err != nil {
			writeError(w, http.StatusInternalServerError, "hook_failed", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	// Purchase ingest
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/purchases"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		var body struct {
			UserID core.UserID `json:"user_id"`
			Amount int64       `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
			return
		}
		if err := eng.ProcessPurchase(r.Context(), body.UserID, body.Amount); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	// Scheduled jobs, driven by an external scheduler
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/jobs/daily-reset"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		if err := eng.DailyReset(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "job_failed", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/jobs/leaderboard"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		if err := eng.UpdateLeaderboard(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "job_failed", err.Error(), nil)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	// Events API
	mux.HandleFunc(withPrefix(opts.PathPrefix, "/events/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
		if path == "" || path[0] != '/' {
			path = "/" + path
		}
		parts := split(path, '/')
		if len(parts) < 2 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		event := parts[1]
		if err := core.ValidateEventName(event); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event", err.Error(), nil)
			return
		}
		rest := parts[2:]

		switch r.Method {
		case http.MethodGet:
			handleEventGet(w, r, eng, event, rest)
		case http.MethodPost:
			handleEventPost(w, r, eng, event, rest)
		}
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

func handleEventGet(w http.ResponseWriter, r *http.Request, eng *engine.Engine, event string, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 0:
		data, err := eng.EventData(ctx, event)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, data)

	case len(rest) == 1 && rest[0] == "scores":
		scores, err := eng.TeamScores(ctx, event)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, scores)

	case len(rest) == 2 && rest[0] == "scores" && rest[1] == "history":
		window := core.HistoryWindow(r.URL.Query().Get("window"))
		if window == "" {
			window = core.WindowDay
		}
		history, err := eng.TeamScoreHistory(ctx, event, window)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, history)

	case len(rest) == 1 && rest[0] == "contributors":
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", nil)
				return
			}
			limit = n
		}
		top, err := eng.TopContributors(ctx, event, limit)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, top)

	case len(rest) == 1 && rest[0] == "rewards":
		rewards, err := eng.Rewards(ctx, event)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, rewards)

	case len(rest) == 1 && rest[0] == "partners":
		partners, err := eng.Partners(ctx, event)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, partners)

	case len(rest) == 2 && rest[0] == "users":
		user, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", "user id must be an integer", nil)
			return
		}
		data, err := eng.UserData(ctx, event, core.UserID(user))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, data)

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

func handleEventPost(w http.ResponseWriter, r *http.Request, eng *engine.Engine, event string, rest []string) {
	ctx := r.Context()
	switch {
	case len(rest) == 1 && rest[0] == "donations":
		var body struct {
			UserID core.UserID `json:"user_id"`
			Amount int64       `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
			return
		}
		receipt, err := eng.Donate(ctx, event, body.UserID, body.Amount)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, receipt)

	case len(rest) == 1 && rest[0] == "partners":
		var partner core.Partner
		if err := json.NewDecoder(r.Body).Decode(&partner); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
			return
		}
		if err := eng.RecordPartner(ctx, event, partner); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

// Helpers

// healthCheck verifies the registry is populated and responds.
func healthCheck(w http.ResponseWriter, _ *http.Request, eng *engine.Engine) {
	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"events": eng.Registry().Len(),
		},
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, status)
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrNoTeam):
		writeError(w, http.StatusUnprocessableEntity, "no_team", err.Error(), nil)
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	// trim leading '/'
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
