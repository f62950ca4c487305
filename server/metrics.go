package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. Each Server owns its
// registry so tests can build servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Labels    *prometheus.CounterVec
	CacheHits prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicecmd",
			Name:      "prediction_requests_total",
			Help:      "Prediction requests by transport and outcome.",
		}, []string{"transport", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicecmd",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent serving a prediction.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"transport"}),
		Labels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicecmd",
			Name:      "predicted_labels_total",
			Help:      "Served predictions by resolved label.",
		}, []string{"label"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicecmd",
			Name:      "prediction_cache_hits_total",
			Help:      "Predictions answered from the cache.",
		}),
	}
	reg.MustRegister(
		m.Requests, m.Duration, m.Labels, m.CacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
