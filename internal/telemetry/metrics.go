// Package telemetry holds the console's Prometheus metrics and OpenTelemetry
// tracing setup.
package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts backend calls by endpoint and HTTP status
	// ("error" when no response was received).
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficmon",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend API requests by endpoint and status",
		},
		[]string{"method", "endpoint", "code"},
	)

	// APIDuration tracks backend call latency.
	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trafficmon",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// LoginAttempts counts console logins by result.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficmon",
			Subsystem: "console",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"}, // ok, invalid, error, limited
	)

	// PageLoads counts page loader runs by page and result.
	PageLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficmon",
			Subsystem: "console",
			Name:      "page_loads_total",
			Help:      "Page loader runs by page and result",
		},
		[]string{"page", "result"}, // ok, error
	)

	// SessionsExpired counts sessions cleared by a backend 401.
	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trafficmon",
			Subsystem: "console",
			Name:      "sessions_expired_total",
			Help:      "Sessions cleared after the backend answered 401",
		},
	)
)

// ObserveAPICall records one backend exchange. Its signature matches
// sdk.Observer.
func ObserveAPICall(method, endpoint string, status int, elapsed time.Duration) {
	ep := NormalizeEndpoint(endpoint)
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	APIRequests.WithLabelValues(method, ep, code).Inc()
	APIDuration.WithLabelValues(method, ep).Observe(elapsed.Seconds())
}

// NormalizeEndpoint replaces numeric path segments with {id} so label
// cardinality stays bounded.
func NormalizeEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	parts := strings.Split(endpoint, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
