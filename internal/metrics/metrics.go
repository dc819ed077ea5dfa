package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentflow_http_requests_total",
		Help: "HTTP requests served, by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentflow_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentflow_upstream_requests_total",
		Help: "Calls to the upstream payments API, by method, endpoint and status",
	}, []string{"method", "endpoint", "status"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentflow_upstream_request_duration_seconds",
		Help:    "Upstream payments API latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	PaymentSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentflow_payment_submissions_total",
		Help: "Tenant payment submissions, by flow method and outcome",
	}, []string{"method", "outcome"})

	ConfirmationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentflow_confirmation_decisions_total",
		Help: "Landlord accept/reject decisions, by action and outcome",
	}, []string{"action", "outcome"})

	StaleResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentflow_stale_responses_total",
		Help: "Upstream responses discarded because a newer request superseded them",
	}, []string{"slice"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentflow_active_sessions",
		Help: "User sessions currently held in memory",
	})

	NotificationClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentflow_notification_clients",
		Help: "Open websocket connections receiving toasts",
	})
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected_locally"
)
