// Package observability provides tracing and domain metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

var (
	// MLRequests counts calls to the inference service by endpoint and outcome.
	MLRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pcoscare_ml_requests_total",
		Help: "Total number of calls to the ML inference service",
	}, []string{"endpoint", "outcome"})

	// MLRequestDuration records inference service latency by endpoint.
	MLRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pcoscare_ml_request_duration_seconds",
		Help:    "ML inference service call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// ChatRequests counts assistant requests by outcome.
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pcoscare_chat_requests_total",
		Help: "Total number of chat assistant requests",
	}, []string{"outcome"})

	// ScreeningsTotal counts persisted screenings by result.
	ScreeningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pcoscare_screenings_total",
		Help: "Total number of stored PCOS screenings",
	}, []string{"result"})

	// AppointmentTransitions counts appointment status changes.
	AppointmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pcoscare_appointment_transitions_total",
		Help: "Total number of appointment status transitions",
	}, []string{"from", "to"})
)

// ObserveMLCall records the outcome and latency of one inference service call.
func ObserveMLCall(endpoint string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	MLRequests.WithLabelValues(endpoint, outcome).Inc()
	MLRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// RecordScreening counts a stored screening under its binary result.
func RecordScreening(prediction int) {
	result := "negative"
	if prediction == 1 {
		result = "positive"
	}
	ScreeningsTotal.WithLabelValues(result).Inc()
}
