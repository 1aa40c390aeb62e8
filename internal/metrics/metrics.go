// Package metrics exposes Prometheus instrumentation for the fusion server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// FusionRequests counts fusion requests by method and status.
	FusionRequests *prometheus.CounterVec

	// FusionDuration observes fusion latency in seconds by method.
	FusionDuration *prometheus.HistogramVec

	// FusionInputSize observes the summed input list size per request.
	FusionInputSize prometheus.Histogram

	// FusionOutputSize observes the fused result size per request.
	FusionOutputSize prometheus.Histogram

	// BatchRequests counts batch fusion requests.
	BatchRequests prometheus.Counter

	// BatchSize observes the number of jobs per batch request.
	BatchSize prometheus.Histogram

	// ValidationFailures counts fused outputs that failed validation.
	ValidationFailures prometheus.Counter

	// EventsPublished counts bus events by topic and outcome.
	EventsPublished *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		FusionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rankfuse_fusion_requests_total",
			Help: "Total fusion requests by method and status.",
		}, []string{"method", "status"}),

		FusionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rankfuse_fusion_duration_seconds",
			Help:    "Fusion request latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"method"}),

		FusionInputSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rankfuse_fusion_input_size",
			Help:    "Summed input list size per fusion request.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),

		FusionOutputSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rankfuse_fusion_output_size",
			Help:    "Fused result size per request.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),

		BatchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankfuse_batch_requests_total",
			Help: "Total batch fusion requests.",
		}),

		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rankfuse_batch_size",
			Help:    "Jobs per batch request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),

		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankfuse_validation_failures_total",
			Help: "Fused outputs that failed post-hoc validation.",
		}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rankfuse_events_published_total",
			Help: "Bus events published by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}

	registry.MustRegister(
		m.FusionRequests,
		m.FusionDuration,
		m.FusionInputSize,
		m.FusionOutputSize,
		m.BatchRequests,
		m.BatchSize,
		m.ValidationFailures,
		m.EventsPublished,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFusion records one completed fusion request.
func (m *Metrics) ObserveFusion(method, status string, seconds float64, inputSize, outputSize int) {
	m.FusionRequests.WithLabelValues(method, status).Inc()
	if status == "ok" {
		m.FusionDuration.WithLabelValues(method).Observe(seconds)
		m.FusionInputSize.Observe(float64(inputSize))
		m.FusionOutputSize.Observe(float64(outputSize))
	}
}

// ObserveBatch records one batch request.
func (m *Metrics) ObserveBatch(jobs int) {
	m.BatchRequests.Inc()
	m.BatchSize.Observe(float64(jobs))
}

// ObservePublish records one bus publish attempt.
func (m *Metrics) ObservePublish(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(topic, outcome).Inc()
}
