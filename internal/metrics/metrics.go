// Package metrics exposes Prometheus collectors for AI calls, HTTP
// requests and assessment sessions.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "psychometric"

// Metrics holds the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	aiCalls        *prometheus.CounterVec
	aiLatency      *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	sessionActions *prometheus.CounterVec
	sessionsDone   prometheus.Counter
	speechCache    *prometheus.CounterVec
}

// New returns Metrics registered on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return MustNewMetrics(reg)
}

// MustNewMetrics constructs Metrics on reg. Registration errors panic,
// which mirrors promauto and surfaces duplicate names early.
func MustNewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		aiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI provider calls by purpose, model and outcome.",
		}, []string{"purpose", "model", "outcome"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Latency of AI provider calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"purpose"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		sessionActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "actions_total",
			Help:      "Session actions by name and outcome.",
		}, []string{"action", "outcome"}),
		sessionsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "completed_total",
			Help:      "Assessments that produced a report.",
		}),
		speechCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "speech",
			Name:      "cache_lookups_total",
			Help:      "Speech cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.aiCalls, m.aiLatency, m.httpRequests, m.httpLatency,
		m.sessionActions, m.sessionsDone, m.speechCache)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAICall implements llm.Observer.
func (m *Metrics) ObserveAICall(purpose, model string, latency time.Duration, err error) {
	if m == nil {
		return
	}
	m.aiCalls.WithLabelValues(purpose, model, outcome(err)).Inc()
	m.aiLatency.WithLabelValues(purpose).Observe(latency.Seconds())
}

// ObserveHTTP records one served request. route is the matched pattern,
// not the raw path.
func (m *Metrics) ObserveHTTP(route, method string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(latency.Seconds())
}

// ObserveSessionAction implements session.Observer.
func (m *Metrics) ObserveSessionAction(action string, err error) {
	if m == nil {
		return
	}
	m.sessionActions.WithLabelValues(action, outcome(err)).Inc()
	if action == "finish" && err == nil {
		m.sessionsDone.Inc()
	}
}

// ObserveSpeechCache implements speech.CacheObserver.
func (m *Metrics) ObserveSpeechCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.speechCache.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}
