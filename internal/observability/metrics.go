package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	transitionsTotal     *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	deliveryFailureTotal *prometheus.CounterVec
	streamClients        prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "challenge_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_submission_transitions_total",
			Help: "Total number of submission status transitions applied.",
		}, []string{"from", "to"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_notifications_published_total",
			Help: "Total number of notifications published per type and channel.",
		}, []string{"type", "channel"})

		deliveryFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "challenge_notification_delivery_failures_total",
			Help: "Total number of failed notification deliveries per channel.",
		}, []string{"channel"})

		streamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "challenge_stream_clients_active",
			Help: "Number of connected notification stream clients.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			transitionsTotal,
			notificationsTotal,
			deliveryFailureTotal,
			streamClients,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionTransitions exposes the counter for submission status changes.
func SubmissionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// NotificationsPublished exposes the counter for published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// NotificationDeliveryFailures exposes the counter for failed deliveries.
func NotificationDeliveryFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return deliveryFailureTotal
}

// StreamClientsActive exposes the gauge of connected stream clients.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClients
}
