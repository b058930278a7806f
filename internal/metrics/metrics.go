// Package metrics holds the Prometheus collectors of the service. A nil *Metrics is a no-op.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	bookingOutcomes    *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	notifyFailures     *prometheus.CounterVec
	completionRuns     *prometheus.CounterVec
	suggestionsCreated prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_requests_total",
			Help: "Booking requests by outcome (created or the rejection reason)",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions by action and outcome",
		}, []string{"action", "outcome"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_notification_failures_total",
			Help: "Notifications that could not be published",
		}, []string{"type"}),
		completionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_completion_total",
			Help: "Bookings handled by the completion worker by outcome",
		}, []string{"outcome"}),
		suggestionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "class_suggestions_created_total",
			Help: "Class suggestions added by regeneration",
		}),
	}

	registry.MustRegister(
		m.requestDuration,
		m.requestTotal,
		m.bookingOutcomes,
		m.transitions,
		m.notifyFailures,
		m.completionRuns,
		m.suggestionsCreated,
		collectors.NewGoCollector(),
	)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	s := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, s).Observe(d.Seconds())
	m.requestTotal.WithLabelValues(method, path, s).Inc()
}

func (m *Metrics) BookingRequest(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Transition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) NotifyFailed(notificationType string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) Completion(outcome string) {
	if m == nil {
		return
	}
	m.completionRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SuggestionsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.suggestionsCreated.Add(float64(n))
}
