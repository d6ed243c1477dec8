// Package metrics provides Prometheus metrics for Atelier.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "atelier"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Auth metrics
var (
	// LoginsTotal counts login attempts by role and outcome
	// (success, invalid, locked, error).
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome",
		},
		[]string{"role", "outcome"},
	)

	// RegistrationsTotal counts created accounts by role.
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Accounts created by role",
		},
		[]string{"role"},
	)

	// SessionRestoresTotal counts remember-me restores by outcome.
	SessionRestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "restores_total",
			Help:      "Sessions restored from the remember-me cookie",
		},
		[]string{"outcome"},
	)

	// ForcedLogoutsTotal counts logouts caused by a role mismatch.
	ForcedLogoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "forced_logouts_total",
			Help:      "Logouts forced by accessing the wrong dashboard",
		},
	)
)

// Storage metrics
var (
	// UploadsTotal counts uploads by category and outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "uploads_total",
			Help:      "File uploads by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	// UploadBytes tracks accepted upload sizes.
	UploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "upload_bytes",
			Help:      "Size of stored uploads in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"category"},
	)

	// ProjectsCreatedTotal counts client projects created.
	ProjectsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projects",
			Name:      "created_total",
			Help:      "Client projects created",
		},
	)
)

// NotificationsTotal counts designer notifications by event kind and
// outcome (sent, failed, rate_limited, dropped).
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Designer notifications by event kind and outcome",
	},
	[]string{"kind", "outcome"},
)
