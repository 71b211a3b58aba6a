// Package metrics exposes Prometheus collectors for the analysis pipeline
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockmatrix"

// Metrics holds the pipeline collectors and the registry they belong to.
// Each instance owns its registry so tests never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CacheLookups        *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
	UpstreamAttempts    *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	SweptEntries        *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result (hit, miss)",
		}, []string{"result"}),
		RateLimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the fixed-window limiter, by scope",
		}, []string{"scope"}),
		UpstreamAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "attempts_total",
			Help:      "Price provider attempts by outcome (ok, throttled, error, no_data)",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "End-to-end analysis duration for uncached requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SweptEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "janitor",
			Name:      "swept_total",
			Help:      "Expired entries removed by the periodic sweeper, by store",
		}, []string{"store"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.CacheLookups,
		m.RateLimitRejections,
		m.UpstreamAttempts,
		m.AnalysisDuration,
		m.SweptEntries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The helpers below are nil-safe so components can run without metrics.

// CacheHit records a response cache hit
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

// CacheMiss records a response cache miss
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

// RateLimited records a rejection for scope (client or global)
func (m *Metrics) RateLimited(scope string) {
	if m != nil {
		m.RateLimitRejections.WithLabelValues(scope).Inc()
	}
}

// UpstreamAttempt records one provider attempt
func (m *Metrics) UpstreamAttempt(outcome string) {
	if m != nil {
		m.UpstreamAttempts.WithLabelValues(outcome).Inc()
	}
}

// ObserveAnalysis records the duration of an uncached analysis
func (m *Metrics) ObserveAnalysis(d time.Duration) {
	if m != nil {
		m.AnalysisDuration.Observe(d.Seconds())
	}
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, code).Inc()
		m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
	}
}

// Swept records entries removed from store by the sweeper
func (m *Metrics) Swept(store string, n int) {
	if m != nil && n > 0 {
		m.SweptEntries.WithLabelValues(store).Add(float64(n))
	}
}
