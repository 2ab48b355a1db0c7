// Package metrics exposes Prometheus collectors for the HTTP server and the tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors on a private registry so that tests and multiple
// servers never collide on the global one. All methods are nil-safe.
type Metrics struct {
	registry *prometheus.Registry

	ReqCount    *prometheus.CounterVec
	ReqDuration *prometheus.HistogramVec
	ErrorCount  *prometheus.CounterVec

	Completions      *prometheus.CounterVec
	StreakRecomputes prometheus.Counter
	CacheLookups     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReqCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streakline_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		ReqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streakline_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ErrorCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streakline_errors_total",
				Help: "Total errors returned to clients",
			},
			[]string{"route", "type"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streakline_completions_total",
				Help: "Completions recorded or deleted",
			},
			[]string{"op"},
		),
		StreakRecomputes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "streakline_streak_recomputes_total",
				Help: "Streak recomputations persisted",
			},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streakline_streak_cache_lookups_total",
				Help: "Streak cache lookups by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.ReqCount, m.ReqDuration, m.ErrorCount,
		m.Completions, m.StreakRecomputes, m.CacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.ReqCount.WithLabelValues(method, path, status).Inc()
	m.ReqDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) ObserveError(route, kind string) {
	if m == nil {
		return
	}
	m.ErrorCount.WithLabelValues(route, kind).Inc()
}

func (m *Metrics) CompletionRecorded() {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues("record").Inc()
}

func (m *Metrics) CompletionDeleted() {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues("delete").Inc()
}

func (m *Metrics) StreakRecomputed() {
	if m == nil {
		return
	}
	m.StreakRecomputes.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
