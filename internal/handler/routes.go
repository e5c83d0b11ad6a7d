package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rss-relay-go/internal/config"
	"rss-relay-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The metrics endpoint is registered only when m is non-nil.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, relay *RelayHandler, health *HealthHandler, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	e.GET("/proxy", relay.Handle)

	if m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
