package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	runs              *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	creativeFallbacks *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pin_pipeline_runs_total",
			Help: "Finished pipeline runs by terminal status.",
		}, []string{"status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pin_pipeline_step_duration_seconds",
			Help:    "Wall time of each pipeline step.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"step"}),
		creativeFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pin_pipeline_creative_fallbacks_total",
			Help: "Creative strategies that failed and fell through to the next one.",
		}, []string{"strategy"}),
	}
	m.registry.MustRegister(m.runs, m.stepDuration, m.creativeFallbacks)
	return m
}

// RunFinished counts a terminal run.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

// ObserveStep records how long a step took.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// CreativeFallback counts a failed creative strategy.
func (m *Metrics) CreativeFallback(strategy string) {
	if m == nil {
		return
	}
	m.creativeFallbacks.WithLabelValues(strategy).Inc()
}

// Registry exposes the registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
