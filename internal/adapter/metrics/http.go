package metrics

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeKey is the echo context key under which the error middleware leaves
// the error type of a failed request.
const OutcomeKey = "metrics.outcome"

const outcomeOK = "ok"

// HTTPMetrics tracks API traffic. Requests are counted per route and per
// outcome, so a spike of rate_limited or conflict rejections on /api/votes
// shows up without parsing logs.
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	InFlight        prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route, status code and outcome (ok or error type).",
		}, []string{"method", "route", "status_code", "outcome"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "in_flight_requests",
			Help:      "API requests currently being served.",
		}),
	}

	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.InFlight)
	return m
}

// Middleware must sit outside the error middleware so the rendered status and
// outcome are visible once next returns. Probes and /metrics are not tracked.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "/metrics" || strings.HasPrefix(route, "/health/") {
				return next(c)
			}

			m.InFlight.Inc()
			defer m.InFlight.Dec()

			method := c.Request().Method
			timer := prometheus.NewTimer(m.RequestDuration.WithLabelValues(method, route))
			err := next(c)
			timer.ObserveDuration()

			status := strconv.Itoa(c.Response().Status)
			m.RequestsTotal.WithLabelValues(method, route, status, outcome(c)).Inc()
			return err
		}
	}
}

func outcome(c echo.Context) string {
	if v, ok := c.Get(OutcomeKey).(string); ok && v != "" {
		return v
	}
	if c.Response().Status >= 400 {
		return "error"
	}
	return outcomeOK
}
