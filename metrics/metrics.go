// Package metrics provides Prometheus metrics for the MedLinkr gateway:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - collaborator_request_total: Counter with collaborator and outcome labels
//   - collaborator_request_duration_seconds: Histogram per collaborator
//   - upload_sessions_active: Gauge of live upload sessions
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	CollaboratorRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_request_total",
			Help: "Total requests sent to backend collaborators",
		},
		[]string{"collaborator", "outcome"},
	)

	CollaboratorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collaborator_request_duration_seconds",
			Help:    "Backend collaborator latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"collaborator"},
	)

	UploadSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upload_sessions_active",
			Help: "Live prescription upload sessions",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(CollaboratorRequestTotals)
	prometheus.MustRegister(CollaboratorRequestDuration)
	prometheus.MustRegister(UploadSessionsActive)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}

// ObserveCollaborator records one collaborator call.
func ObserveCollaborator(name string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CollaboratorRequestTotals.WithLabelValues(name, outcome).Inc()
	CollaboratorRequestDuration.WithLabelValues(name).Observe(seconds)
}
