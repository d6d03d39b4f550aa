// Package metrics exposes Prometheus collectors for HTTP traffic and the
// room and message flows.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tapin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tapin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	RoomsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tapin",
			Subsystem: "rooms",
			Name:      "created_total",
			Help:      "Rooms created, by type.",
		},
		[]string{"type"},
	)

	RoomJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tapin",
			Subsystem: "rooms",
			Name:      "joins_total",
			Help:      "Join-or-create outcomes.",
		},
		[]string{"outcome"},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tapin",
			Subsystem: "messages",
			Name:      "sent_total",
			Help:      "Messages accepted.",
		},
	)

	MessagesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tapin",
			Subsystem: "messages",
			Name:      "rejected_total",
			Help:      "Messages refused, by reason.",
		},
		[]string{"reason"},
	)

	ReaperDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tapin",
			Subsystem: "reaper",
			Name:      "deleted_total",
			Help:      "Rows removed by background cleanup jobs.",
		},
		[]string{"kind"},
	)

	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tapin",
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open websocket connections.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		RoomsCreated,
		RoomJoins,
		MessagesSent,
		MessagesRejected,
		ReaperDeleted,
		WebsocketConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Middleware records request counts and latency keyed by the matched route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
