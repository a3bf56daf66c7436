package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	// SQL drivers for the sqlx store
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"seasonkit/adapters/ledgerhttp"
	mem "seasonkit/adapters/memory"
	redisAdapter "seasonkit/adapters/redis"
	sqlxAdapter "seasonkit/adapters/sqlx"

	"seasonkit/adapters/jsonfile"
	"seasonkit/api/httpapi"
	"seasonkit/config"
	"seasonkit/core"
	"seasonkit/engine"
	"seasonkit/events"
	"seasonkit/integrations/purge"
	"seasonkit/metrics"
	"seasonkit/realtime"
	"seasonkit/seasons"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Metrics *metrics.Manager
	Engine  *engine.Engine
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		secrets := config.NewEnvironmentSecretStore()
		cfg.Ledger.Token = secrets.GetWithDefault(ctx, "SEASONKIT_LEDGER_TOKEN", cfg.Ledger.Token)
		cfg.Purge.Token = secrets.GetWithDefault(ctx, "SEASONKIT_PURGE_TOKEN", cfg.Purge.Token)
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideMetrics(cfg *config.Config) *metrics.Manager {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace))
}

func provideDefinitions() []core.EventDefinition {
	return events.BuiltIn()
}

func provideLedger(cfg *config.Config) (engine.Ledger, error) {
	return setupLedger(cfg)
}

func provideCache(cfg *config.Config) (engine.Cache, error) {
	return setupCache(cfg)
}

func provideStore(cfg *config.Config) (engine.Store, error) {
	return setupStore(cfg)
}

func provideEngine(
	cfg *config.Config,
	defs []core.EventDefinition,
	ledger engine.Ledger,
	cache engine.Cache,
	store engine.Store,
	hub *realtime.Hub,
	logger *slog.Logger,
	m *metrics.Manager,
) (*engine.Engine, error) {
	opts := []seasons.Option{
		seasons.WithLedger(ledger),
		seasons.WithCache(cache),
		seasons.WithStore(store),
		seasons.WithRealtime(hub),
		seasons.WithLogger(logger),
		seasons.WithDispatchMode(engine.DispatchAsync),
	}
	if m != nil {
		opts = append(opts, seasons.WithMetrics(m))
	}
	if cfg.Purge.Endpoint != "" {
		opts = append(opts, seasons.WithPurger(purge.New(cfg.Purge.Endpoint, purge.WithToken(cfg.Purge.Token))))
	}
	return seasons.New(defs, opts...)
}

func provideHandler(eng *engine.Engine, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(eng, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupLedger creates the ledger client based on configuration.
func setupLedger(cfg *config.Config) (engine.Ledger, error) {
	switch cfg.Ledger.Adapter {
	case "memory":
		return mem.NewLedger(), nil
	case "http":
		var opts []ledgerhttp.Option
		if cfg.Ledger.Token != "" {
			opts = append(opts, ledgerhttp.WithAuthToken(cfg.Ledger.Token))
		}
		return ledgerhttp.NewClient(cfg.Ledger.BaseURL, opts...)
	default:
		return nil, fmt.Errorf("unknown ledger adapter: %s", cfg.Ledger.Adapter)
	}
}

// setupCache creates the cache adapter based on configuration.
func setupCache(cfg *config.Config) (engine.Cache, error) {
	switch cfg.Cache.Adapter {
	case "memory":
		return mem.NewCache(), nil
	case "redis":
		return redisAdapter.New(cfg.Cache.Redis)
	case "file":
		return jsonfile.New(cfg.Cache.File.Path)
	default:
		return nil, fmt.Errorf("unknown cache adapter: %s", cfg.Cache.Adapter)
	}
}

// setupStore creates the relational store adapter based on configuration.
func setupStore(cfg *config.Config) (engine.Store, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.NewStore(), nil
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
