package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Booking transactions by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	bookingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_operation_duration_seconds",
			Help:    "Duration of booking transactions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	reconciledFlights = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "availability_reconciled_flights_total",
			Help: "Flights whose seats_available had drifted from the seat ledger",
		},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_notifications_total",
			Help: "Ticket notifications by event type and delivery status",
		},
		[]string{"event", "status"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome classifies an operation error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrSeatAlreadyBooked), errors.Is(err, domain.ErrSeatBooked), errors.Is(err, domain.ErrFlightHasTickets):
		return "conflict"
	default:
		return "error"
	}
}

func ObserveBooking(operation string, started time.Time, err error) {
	bookingOps.WithLabelValues(operation, Outcome(err)).Inc()
	bookingDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func AddReconciled(n int) {
	reconciledFlights.Add(float64(n))
}

func ObserveNotification(event string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	notifications.WithLabelValues(event, status).Inc()
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
