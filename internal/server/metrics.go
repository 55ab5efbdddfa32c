package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/varq/internal/engine"
)

// Metrics records evaluation outcomes. It implements engine.Observer.
//
// Each Metrics owns its registry so that several servers (and tests) can
// coexist in one process.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	matches     *prometheus.HistogramVec
	variants    prometheus.Gauge
	reloads     *prometheus.CounterVec
}

// NewMetrics creates and registers the varq collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "varq_evaluations_total",
				Help: "Total number of query evaluations",
			},
			[]string{"op", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "varq_evaluation_duration_seconds",
				Help:    "Query evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		matches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "varq_evaluation_matches",
				Help:    "Number of variants matched by successful evaluations",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"op"},
		),
		variants: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "varq_snapshot_variants",
			Help: "Number of variants in the current snapshot",
		}),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "varq_snapshot_reloads_total",
				Help: "Snapshot reloads by outcome",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(m.evaluations, m.duration, m.matches, m.variants, m.reloads)
	return m
}

// ObserveEvaluation implements engine.Observer.
func (m *Metrics) ObserveEvaluation(op engine.Operation, result engine.MatchResult, elapsed time.Duration) {
	code := "OK"
	if result.Err != nil {
		code = string(result.Err.Code)
	}
	m.evaluations.WithLabelValues(string(op), code).Inc()
	m.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
	if result.Err == nil {
		m.matches.WithLabelValues(string(op)).Observe(float64(len(result.IDs)))
	}
}

// ObserveReload records a reload attempt and, on success, the new
// snapshot size.
func (m *Metrics) ObserveReload(variants int, err error) {
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	m.variants.Set(float64(variants))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
