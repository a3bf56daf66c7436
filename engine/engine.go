package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"seasonkit/core"
	"seasonkit/leaderboard"
	"seasonkit/metrics"
)

const (
	// contributorLimit caps persisted leaderboard snapshots.
	contributorLimit = 500
	// defaultTopLimit is the default size of cached contributor queries.
	defaultTopLimit = 10

	contributorCacheTTL = 24 * time.Hour
	// cleanupMarkerTTL assumes the event is dropped from configuration
	// within a week of ending; after expiry cleanup would run again.
	cleanupMarkerTTL = 7 * 24 * time.Hour
)

func cleanupKey(event string) string      { return "eventCleanup:" + event }
func contributorsKey(event string) string { return "event:" + event + ":contributors" }
func partnersKey(event string) string     { return "event:" + event + ":partners" }

// Engine wires the event registry and external collaborators into the
// seasonal scoring and reward API. It owns no goroutines: ProcessEngagement,
// DailyReset, and UpdateLeaderboard are driven by an external scheduler and
// run to completion as single units of work.
type Engine struct {
	registry *Registry
	ledger   Ledger
	cache    Cache
	store    Store
	purger   Purger
	clock    Clock
	bus      *EventBus
	log      *slog.Logger
	metrics  *metrics.Manager
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithPurger wires the downstream cache purge client.
func WithPurger(p Purger) Option { return func(e *Engine) { e.purger = p } }

// WithClock overrides the wall clock.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithBus replaces the notification bus.
func WithBus(b *EventBus) Option { return func(e *Engine) { e.bus = b } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.Manager) Option { return func(e *Engine) { e.metrics = m } }

// New builds an Engine. Registry, ledger, cache, and store are required.
func New(registry *Registry, ledger Ledger, cache Cache, store Store, opts ...Option) *Engine {
	if registry == nil || ledger == nil || cache == nil || store == nil {
		panic("engine.New requires non-nil registry, ledger, cache, and store")
	}
	e := &Engine{
		registry: registry,
		ledger:   ledger,
		cache:    cache,
		store:    store,
		clock:    SystemClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = NewEventBus(DispatchSync)
	}
	return e
}

// Registry exposes the immutable event registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Subscribe registers a handler for engine notification events.
func (e *Engine) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return e.bus.Subscribe(typ, handler)
}

// Close stops the notification bus workers.
func (e *Engine) Close() { e.bus.Close() }

// TeamAccounts maps every team of the event to its ledger account.
func (e *Engine) TeamAccounts(event string) (map[string]core.AccountID, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return nil, err
	}
	return teamAccounts(def), nil
}

func teamAccounts(def core.EventDefinition) map[string]core.AccountID {
	accounts := make(map[string]core.AccountID, len(def.Teams))
	for i, team := range def.Teams {
		accounts[team] = def.TeamAccount(i)
	}
	return accounts
}

func accountTeams(def core.EventDefinition) map[core.AccountID]string {
	teams := make(map[core.AccountID]string, len(def.Teams))
	for i, team := range def.Teams {
		teams[def.TeamAccount(i)] = team
	}
	return teams
}

func accountIDs(def core.EventDefinition) []core.AccountID {
	ids := make([]core.AccountID, len(def.Teams))
	for i := range def.Teams {
		ids[i] = def.TeamAccount(i)
	}
	return ids
}

// TeamScores returns the current ranked standings of the event, reading
// each team account's balance from the ledger.
func (e *Engine) TeamScores(ctx context.Context, event string) ([]core.TeamScore, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return nil, err
	}
	return e.teamScores(ctx, def)
}

func (e *Engine) teamScores(ctx context.Context, def core.EventDefinition) ([]core.TeamScore, error) {
	scores := make([]core.TeamScore, 0, len(def.Teams))
	for i, team := range def.Teams {
		balance, err := e.ledger.Balance(ctx, def.TeamAccount(i))
		if err != nil {
			return nil, fmt.Errorf("event %s: balance for team %s: %w", def.Name, team, err)
		}
		scores = append(scores, core.TeamScore{Team: team, Score: balance})
	}
	return leaderboard.RankTeams(scores), nil
}

// TeamScoreHistory returns, per team, a time-bucketed score series since
// the event's start date. The view is read-only and uncached.
func (e *Engine) TeamScoreHistory(ctx context.Context, event string, window core.HistoryWindow) ([]core.TeamScoreHistory, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateWindow(window); err != nil {
		return nil, err
	}

	summaries, err := e.ledger.BalanceHistory(ctx, accountIDs(def), def.StartDate, window)
	if err != nil {
		return nil, fmt.Errorf("event %s: balance history: %w", def.Name, err)
	}

	out := make([]core.TeamScoreHistory, 0, len(def.Teams))
	for i, team := range def.Teams {
		points := summaries[def.TeamAccount(i)]
		scores := make([]core.ScorePoint, 0, len(points))
		for _, p := range points {
			scores = append(scores, core.ScorePoint{Date: p.Date, Score: p.Balance})
		}
		out = append(out, core.TeamScoreHistory{Team: team, Scores: scores})
	}
	return out, nil
}

// EventData returns the public description of one event. When the
// definition derives its cover image from a collection, the latest image
// wins over the static one.
func (e *Engine) EventData(ctx context.Context, event string) (core.EventData, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return core.EventData{}, err
	}

	data := core.EventData{
		Title:        def.Title,
		StartDate:    def.StartDate,
		EndDate:      def.EndDate,
		Teams:        append([]string(nil), def.Teams...),
		CosmeticName: def.CosmeticName,
		CoverImage:   def.CoverImage,
	}
	if def.CoverImageCollection != "" {
		url, username, err := e.store.LatestCollectionImage(ctx, def.CoverImageCollection)
		if err != nil {
			return core.EventData{}, fmt.Errorf("event %s: cover image: %w", def.Name, err)
		}
		if url != "" {
			data.CoverImage = url
			data.CoverImageUser = username
		}
	}
	return data, nil
}

// UserData resolves the user's cosmetic, team, and team account for the
// event. A user without a team gets a zero AccountID.
func (e *Engine) UserData(ctx context.Context, event string, user core.UserID) (core.UserData, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return core.UserData{}, err
	}

	data := core.UserData{}
	if def.GetUserCosmeticID != nil {
		id, err := def.GetUserCosmeticID(ctx, user)
		if err != nil {
			return core.UserData{}, hookErr(def.Name, "getUserCosmeticId", err)
		}
		data.CosmeticID = id
	}
	if def.GetUserTeam != nil {
		data.Team = def.GetUserTeam(user)
	}
	if data.Team != "" {
		data.AccountID = teamAccounts(def)[data.Team]
	}
	return data, nil
}

// Rewards returns the event's reward table.
func (e *Engine) Rewards(ctx context.Context, event string) ([]core.Reward, error) {
	def, err := e.registry.ByName(event)
	if err != nil {
		return nil, err
	}
	if def.GetRewards == nil {
		return nil, nil
	}
	rewards, err := def.GetRewards(ctx)
	if err != nil {
		return nil, hookErr(def.Name, "getRewards", err)
	}
	return rewards, nil
}

// leaderboardScopes lists the scope ids of one event in registry order:
// all-time, day, then one per team (lowercased).
func leaderboardScopes(def core.EventDefinition) []string {
	scopes := []string{"all-time", "day"}
	for _, team := range def.Teams {
		scopes = append(scopes, strings.ToLower(team))
	}
	return scopes
}

func scopeID(event, scope string) string { return event + ":" + scope }

// day truncates a time to its UTC calendar day.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
