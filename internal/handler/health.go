// Package handler contains the HTTP handlers and route wiring of the relay.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(v Version) *HealthHandler {
	return &HealthHandler{version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns relay status information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": string(h.version),
	})
}
