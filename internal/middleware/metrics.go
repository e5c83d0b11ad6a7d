package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"rss-relay-go/internal/metrics"
)

// MetricsMiddleware returns an Echo middleware that records Prometheus metrics
// for each inbound request.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()

			err := next(c)
			if err != nil {
				// Commit the error response so the recorded status is the one sent.
				c.Error(err)
			}

			req := c.Request()
			labels := []string{
				metrics.NormalizeMethod(req.Method),
				strconv.Itoa(c.Response().Status),
				metrics.NormalizePath(req.URL.Path),
			}
			m.RequestsTotal.WithLabelValues(labels...).Inc()
			m.RequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
