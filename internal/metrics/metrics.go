package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeValid         = "valid"
	OutcomeInvalid       = "invalid"
	OutcomeProviderError = "provider_error"

	StatusSuccess           = "success"
	StatusGenerationFailure = "generation_failure"
	StatusProviderFailure   = "provider_failure"
)

// Collector records completion and request metrics.
type Collector interface {
	RecordAttempt(ctx context.Context, schema, outcome string)
	RecordCompletion(ctx context.Context, schema, status string, duration time.Duration)
	RecordRequest(ctx context.Context, route string, status int, duration time.Duration)
}

// PrometheusCollector provides Prometheus metrics collection for completions
// and HTTP requests.
type PrometheusCollector struct {
	attemptsTotal      *prometheus.CounterVec
	completionsTotal   *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	registry           *prometheus.Registry
}

// NewCollector creates a new Prometheus metrics collector on its own registry.
func NewCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_completion_attempts_total",
			Help: "Completion attempts by schema and outcome",
		},
		[]string{"schema", "outcome"},
	)

	completionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_completions_total",
			Help: "Completed structured generations by schema and final status",
		},
		[]string{"schema", "status"},
	)

	completionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postcraft_completion_duration_seconds",
			Help:    "Duration of structured generations including retries",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"schema", "status"},
	)

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postcraft_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postcraft_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)

	registry.MustRegister(attemptsTotal, completionsTotal, completionDuration, requestsTotal, requestDuration)

	return &PrometheusCollector{
		attemptsTotal:      attemptsTotal,
		completionsTotal:   completionsTotal,
		completionDuration: completionDuration,
		requestsTotal:      requestsTotal,
		requestDuration:    requestDuration,
		registry:           registry,
	}
}

func (m *PrometheusCollector) RecordAttempt(ctx context.Context, schema, outcome string) {
	m.attemptsTotal.WithLabelValues(schema, outcome).Inc()
}

func (m *PrometheusCollector) RecordCompletion(ctx context.Context, schema, status string, duration time.Duration) {
	m.completionsTotal.WithLabelValues(schema, status).Inc()
	m.completionDuration.WithLabelValues(schema, status).Observe(duration.Seconds())
}

func (m *PrometheusCollector) RecordRequest(ctx context.Context, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry for HTTP exposure
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}
