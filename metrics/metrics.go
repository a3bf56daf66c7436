// Package metrics provides Prometheus instrumentation for the seasonal
// event engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the engine's metric set. A nil Manager is a valid no-op
// receiver so instrumentation can stay optional.
type Manager struct {
	registry *prometheus.Registry

	donations         prometheus.Counter
	donatedAmount     prometheus.Counter
	purchases         prometheus.Counter
	engagementSignals prometheus.Counter
	leaderboardRuns   prometheus.Counter
	cleanupRuns       *prometheus.CounterVec
	hookErrors        *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*manager)

type manager struct {
	namespace string
	buckets   []float64
}

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithJobBuckets sets custom histogram buckets for job durations.
func WithJobBuckets(buckets []float64) Option {
	return func(m *manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// NewManager builds a Manager backed by its own registry, keeping the
// default Go collectors out of the scrape output.
func NewManager(opts ...Option) *Manager {
	cfg := &manager{namespace: "seasonkit", buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(cfg)
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Manager{registry: reg}

	m.donations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "donations_total", Help: "Donations recorded.",
	})
	m.donatedAmount = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "donated_amount_total", Help: "Total amount donated across all events.",
	})
	m.purchases = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "purchases_total", Help: "Purchase signals processed.",
	})
	m.engagementSignals = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "engagement_signals_total", Help: "Engagement signals dispatched.",
	})
	m.leaderboardRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "leaderboard_updates_total", Help: "Leaderboard recomputations completed.",
	})
	m.cleanupRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "cleanup_runs_total", Help: "End-of-event cleanups, by outcome.",
	}, []string{"outcome"})
	m.hookErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "hook_errors_total", Help: "Event definition hook failures, by hook.",
	}, []string{"hook"})
	m.jobDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.namespace, Subsystem: "engine",
		Name: "job_duration_seconds", Help: "Batch job durations.",
		Buckets: cfg.buckets,
	}, []string{"job"})

	return m
}

// Handler exposes the metric set for scraping.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) DonationRecorded(amount int64) {
	if m == nil {
		return
	}
	m.donations.Inc()
	m.donatedAmount.Add(float64(amount))
}

func (m *Manager) PurchaseRecorded() {
	if m == nil {
		return
	}
	m.purchases.Inc()
}

func (m *Manager) EngagementDispatched() {
	if m == nil {
		return
	}
	m.engagementSignals.Inc()
}

func (m *Manager) LeaderboardUpdated() {
	if m == nil {
		return
	}
	m.leaderboardRuns.Inc()
}

// CleanupRun records one cleanup attempt; outcome is "completed",
// "skipped", or "failed".
func (m *Manager) CleanupRun(outcome string) {
	if m == nil {
		return
	}
	m.cleanupRuns.WithLabelValues(outcome).Inc()
}

func (m *Manager) HookError(hook string) {
	if m == nil {
		return
	}
	m.hookErrors.WithLabelValues(hook).Inc()
}

// ObserveJob records the duration of one batch job invocation.
func (m *Manager) ObserveJob(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}
