// Package metrics provides Prometheus instrumentation for the scoring service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service's Prometheus collectors. A nil Manager is valid
// and records nothing, so instrumentation stays optional in tests.
type Manager struct {
	registry *prometheus.Registry

	runsStarted   prometheus.Counter
	recalculated  prometheus.Counter
	skipped       prometheus.Counter
	storeErrors   prometheus.Counter
	runDuration   prometheus.Histogram
	cacheRequests *prometheus.CounterVec
}

// NewManager registers all collectors on a fresh registry.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	m := &Manager{
		registry: registry,
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoring",
			Subsystem: "recalc",
			Name:      "runs_total",
			Help:      "Recalculation runs started.",
		}),
		recalculated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoring",
			Subsystem: "recalc",
			Name:      "participants_recalculated_total",
			Help:      "Participants whose summaries were recalculated.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoring",
			Subsystem: "recalc",
			Name:      "participants_skipped_total",
			Help:      "Participants skipped as ineligible.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scoring",
			Subsystem: "recalc",
			Name:      "store_errors_total",
			Help:      "Participants dropped from a run by store failures.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scoring",
			Subsystem: "recalc",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of recalculation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scoring",
			Subsystem: "cache",
			Name:      "assessment_requests_total",
			Help:      "Assessment cache lookups by result.",
		}, []string{"result"}),
	}
	registry.MustRegister(
		m.runsStarted,
		m.recalculated,
		m.skipped,
		m.storeErrors,
		m.runDuration,
		m.cacheRequests,
	)
	return m
}

// Handler serves the scrape endpoint for this manager's registry.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RunStarted() {
	if m == nil {
		return
	}
	m.runsStarted.Inc()
}

func (m *Manager) ParticipantRecalculated() {
	if m == nil {
		return
	}
	m.recalculated.Inc()
}

func (m *Manager) ParticipantSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Manager) StoreError() {
	if m == nil {
		return
	}
	m.storeErrors.Inc()
}

func (m *Manager) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

// CacheHit and CacheMiss record assessment cache traffic.
func (m *Manager) CacheHit() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("hit").Inc()
}

func (m *Manager) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("miss").Inc()
}
