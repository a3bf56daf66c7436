// Package seasons is the batteries-included entry point: it assembles an
// engine from event definitions and optional adapters, defaulting every
// collaborator to its in-memory implementation.
package seasons

import (
	"context"
	"log/slog"

	"seasonkit/adapters/memory"
	"seasonkit/core"
	"seasonkit/engine"
	"seasonkit/metrics"
	"seasonkit/realtime"
)

// Option configures the engine builder.
type Option func(*config)

type config struct {
	ledger  engine.Ledger
	cache   engine.Cache
	store   engine.Store
	purger  engine.Purger
	clock   engine.Clock
	mode    engine.DispatchMode
	hub     *realtime.Hub
	log     *slog.Logger
	metrics *metrics.Manager
}

// WithLedger sets the transaction ledger service.
func WithLedger(l engine.Ledger) Option { return func(c *config) { c.ledger = l } }

// WithCache sets the key-value cache store.
func WithCache(s engine.Cache) Option { return func(c *config) { c.cache = s } }

// WithStore sets the relational store.
func WithStore(s engine.Store) Option { return func(c *config) { c.store = s } }

// WithPurger wires a downstream CDN purge client.
func WithPurger(p engine.Purger) Option { return func(c *config) { c.purger = p } }

// WithClock overrides the wall clock.
func WithClock(clk engine.Clock) Option { return func(c *config) { c.clock = clk } }

// WithDispatchMode selects sync or async notification dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine notifications.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.log = l } }

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.Manager) Option { return func(c *config) { c.metrics = m } }

// New builds a configured engine from the given event definitions.
// If not provided, defaults are used:
//   - ledger, cache, store: in-memory
//   - dispatch: async
func New(defs []core.EventDefinition, opts ...Option) (*engine.Engine, error) {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.ledger == nil {
		cfg.ledger = memory.NewLedger()
	}
	if cfg.cache == nil {
		cfg.cache = memory.NewCache()
	}
	if cfg.store == nil {
		cfg.store = memory.NewStore()
	}

	registry, err := engine.NewRegistry(defs...)
	if err != nil {
		return nil, err
	}

	bus := engine.NewEventBus(cfg.mode)
	if cfg.hub != nil {
		// Bridge every notification type to realtime
		for _, typ := range realtime.AllEventTypes() {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
	}

	engineOpts := []engine.Option{engine.WithBus(bus)}
	if cfg.purger != nil {
		engineOpts = append(engineOpts, engine.WithPurger(cfg.purger))
	}
	if cfg.clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(cfg.clock))
	}
	if cfg.log != nil {
		engineOpts = append(engineOpts, engine.WithLogger(cfg.log))
	}
	if cfg.metrics != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(cfg.metrics))
	}
	return engine.New(registry, cfg.ledger, cfg.cache, cfg.store, engineOpts...), nil
}
