package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_db_query_duration_seconds",
			Help:    "Database statement duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"operation", "table"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_bookings_total",
			Help: "Booking attempts by result",
		},
		[]string{"result"}, // booked, unavailable, failed, cancelled
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_change_events_total",
			Help: "Change events handed to the publisher",
		},
		[]string{"entity", "action", "result"},
	)
)

func RecordDBQuery(operation, table string, took time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(took.Seconds())
}

func RecordHTTPRequest(method, path, status string, took time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(took.Seconds())
}

func IncBooking(result string) {
	BookingsTotal.WithLabelValues(result).Inc()
}

func IncEventPublished(entity, action, result string) {
	EventsPublishedTotal.WithLabelValues(entity, action, result).Inc()
}

// Middleware records HTTP latency labelled with the route pattern, not the
// raw path, to keep label cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(c.Response().Status), time.Since(start))
			return nil
		}
	}
}

// Handler serves the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
