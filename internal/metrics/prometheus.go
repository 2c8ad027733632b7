package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "announcements_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "announcements_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "announcements_operations_total",
		Help: "Announcement service operations by outcome",
	}, []string{"operation", "outcome"})

	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "announcements_auth_failures_total",
		Help: "Rejected credentials by reason",
	}, []string{"reason"})

	EventPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "announcements_event_publish_errors_total",
		Help: "Change events that could not be published",
	})
)

func ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	label := strings.TrimSpace(route)
	if label == "" {
		label = "unmatched"
	}
	HTTPRequests.WithLabelValues(label, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(label, method).Observe(duration.Seconds())
}

func IncOperation(operation, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	Operations.WithLabelValues(operation, outcome).Inc()
}

func IncAuthFailure(reason string) {
	label := strings.TrimSpace(reason)
	if label == "" {
		label = "unknown"
	}
	AuthFailures.WithLabelValues(label).Inc()
}

func IncEventPublishError() {
	EventPublishErrors.Inc()
}
