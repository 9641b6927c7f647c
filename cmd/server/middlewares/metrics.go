package middlewares

import (
	"strconv"
	"time"

	"note-keeper/cmd/server/handlers/httperr"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// normalizeRoutePath returns the route template ("/notes/:id") so label
// cardinality stays bounded. Unmatched requests fall back to the raw path.
func normalizeRoutePath(c *fiber.Ctx) string {
	if route := c.Route(); route != nil {
		return route.Path
	}
	return c.Path()
}

// normalizeStatus buckets a status code into its class, e.g. 207 -> "2xx".
func normalizeStatus(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}

// AttachMetrics gives app its own Prometheus registry, a request timing
// middleware and a /metrics endpoint.
func AttachMetrics(app *fiber.App) {
	reg := prometheus.NewRegistry()

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being served",
	})

	reg.MustRegister(reqDuration, reqTotal, inFlight)

	app.Use(func(c *fiber.Ctx) error {
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		err := c.Next()
		dur := time.Since(start).Seconds()

		status := c.Response().StatusCode()
		if err != nil {
			// the global error handler has not written the response yet
			status = errorStatus(err)
		}

		method := c.Method()
		path := normalizeRoutePath(c)
		label := normalizeStatus(status)

		reqDuration.WithLabelValues(method, path, label).Observe(dur)
		reqTotal.WithLabelValues(method, path, label).Inc()
		return err
	})

	app.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
}

func errorStatus(err error) int {
	if status, ok := httperr.Status(err); ok {
		return status
	}
	return fiber.StatusInternalServerError
}
