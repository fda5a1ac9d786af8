// Package metrics exposes Prometheus collectors for the catalog server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Business logic metrics
	signupAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_attempts_total",
			Help: "Total number of signup attempts by gate outcome",
		},
		[]string{"result"},
	)

	signupBlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signup_blocks_total",
			Help: "Total number of signup blocks issued",
		},
	)

	registrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of accounts created",
		},
	)

	mediaUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total number of media uploads by outcome",
		},
		[]string{"result"},
	)

	// Dependency health metrics
	dependencyHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_health",
			Help: "Health status of dependencies (1 = healthy, 0 = unhealthy)",
		},
		[]string{"dependency"},
	)
)

// RecordHTTPRequest records HTTP request metrics.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordSignupAttempt records one gate decision.
// Result is one of "admitted", "blocked", "rejected".
func RecordSignupAttempt(result string) {
	signupAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordSignupBlock increments the issued-block counter.
func RecordSignupBlock() {
	signupBlocksTotal.Inc()
}

// RecordRegistration increments the account creation counter.
func RecordRegistration() {
	registrationsTotal.Inc()
}

// RecordMediaUpload records one upload attempt, result "ok" or "error".
func RecordMediaUpload(result string) {
	mediaUploadsTotal.WithLabelValues(result).Inc()
}

// SetDependencyHealth sets the health status of a dependency.
func SetDependencyHealth(dependency string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	dependencyHealth.WithLabelValues(dependency).Set(value)
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
