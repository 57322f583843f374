// Package metrics exposes the service's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vitiscan"

type Metrics struct {
	registry *prometheus.Registry

	retrievalAttempts *prometheus.CounterVec
	retrievalResults  *prometheus.CounterVec
	normalizeStages   *prometheus.CounterVec
	llmFailures       prometheus.Counter
	plansStored       *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		retrievalAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_attempts_total",
			Help:      "Knowledge store searches by filter tier.",
		}, []string{"tier"}),
		retrievalResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_results_total",
			Help:      "Retrievals by the tier that produced fragments, or empty.",
		}, []string{"outcome"}),
		normalizeStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advice_normalize_total",
			Help:      "Model answers by the normalization stage that produced the record.",
		}, []string{"stage"}),
		llmFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_failures_total",
			Help:      "Model invocations that failed after retries.",
		}),
		plansStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_stored_total",
			Help:      "Treatment plan history writes by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.retrievalAttempts,
		m.retrievalResults,
		m.normalizeStages,
		m.llmFailures,
		m.plansStored,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RetrievalAttempt(tier string) {
	if m == nil {
		return
	}
	m.retrievalAttempts.WithLabelValues(tier).Inc()
}

// RetrievalResult records which tier served a retrieval ("strict",
// "relaxed" or "empty").
func (m *Metrics) RetrievalResult(outcome string) {
	if m == nil {
		return
	}
	m.retrievalResults.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NormalizeStage(stage string) {
	if m == nil {
		return
	}
	m.normalizeStages.WithLabelValues(stage).Inc()
}

func (m *Metrics) LLMFailure() {
	if m == nil {
		return
	}
	m.llmFailures.Inc()
}

func (m *Metrics) PlanStored(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.plansStored.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
