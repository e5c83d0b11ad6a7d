package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// corsAllowMethods is advertised on preflight responses.
var corsAllowMethods = strings.Join([]string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPut,
	http.MethodPatch,
	http.MethodPost,
	http.MethodDelete,
}, ",")

// AllowAnyOrigin returns an Echo middleware that marks every response,
// including errors and requests without an Origin header, as readable from
// any origin. Preflight requests are answered with 204 without reaching the
// route handler.
func AllowAnyOrigin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			h := c.Response().Header()

			// Set before next so the central error handler keeps it.
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")

			if req.Method != http.MethodOptions {
				return next(c)
			}

			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			if reqHeaders := req.Header.Get(echo.HeaderAccessControlRequestHeaders); reqHeaders != "" {
				h.Add(echo.HeaderVary, echo.HeaderAccessControlRequestHeaders)
				h.Set(echo.HeaderAccessControlAllowHeaders, reqHeaders)
			}
			h.Set(echo.HeaderContentLength, "0")
			return c.NoContent(http.StatusNoContent)
		}
	}
}
