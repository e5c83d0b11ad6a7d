// Package devproxy implements the local development server: configured path
// prefixes are stripped and forwarded to a fixed remote origin, and an
// optional static directory serves the built frontend.
package devproxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"rss-relay-go/internal/config"
	"rss-relay-go/internal/middleware"
)

// Rule forwards requests under Prefix to Target with the prefix removed.
type Rule struct {
	Prefix string
	Target *url.URL
}

// NewRules parses the configured redirects.
func NewRules(cfgs []config.RedirectConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for _, rc := range cfgs {
		u, err := url.Parse(rc.Target)
		if err != nil {
			return nil, fmt.Errorf("redirect %s: parse target: %w", rc.Prefix, err)
		}
		rules = append(rules, Rule{Prefix: rc.Prefix, Target: u})
	}
	return rules, nil
}

// Matches reports whether path is the prefix itself or lies below it.
func (r Rule) Matches(path string) bool {
	return path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/")
}

// Strip returns path with the prefix removed, never empty.
func (r Rule) Strip(path string) string {
	rest := strings.TrimPrefix(path, r.Prefix)
	if rest == "" {
		return "/"
	}
	return rest
}

// rewrite strips the prefix and points the Host header at the target origin
// before the request reaches the proxy middleware.
func (r Rule) rewrite() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			req.URL.Path = r.Strip(req.URL.Path)
			req.URL.RawPath = ""
			req.Host = r.Target.Host
			return next(c)
		}
	}
}

// NewServer builds the development server for cfg.Dev.
func NewServer(cfg *config.Config, logger *slog.Logger) (*echo.Echo, error) {
	rules, err := NewRules(cfg.Dev.Redirects)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))

	if cfg.Dev.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
			Root:  cfg.Dev.StaticDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				return matchesAny(rules, c.Request().URL.Path)
			},
		}))
	}

	for _, r := range rules {
		register(e, r, logger)
	}

	return e, nil
}

func register(e *echo.Echo, r Rule, logger *slog.Logger) {
	balancer := echomw.NewRandomBalancer([]*echomw.ProxyTarget{{Name: r.Prefix, URL: r.Target}})
	proxy := echomw.ProxyWithConfig(echomw.ProxyConfig{
		Balancer: balancer,
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Error("dev redirect failed",
				"prefix", r.Prefix,
				"target", r.Target.String(),
				"err", err,
			)
			return echo.NewHTTPError(http.StatusBadGateway, "upstream unavailable").SetInternal(err)
		},
	})

	// Group middleware runs for the bare prefix and everything below it.
	e.Group(r.Prefix, r.rewrite(), proxy)

	logger.Info("dev redirect registered", "prefix", r.Prefix, "target", r.Target.String())
}

func matchesAny(rules []Rule, path string) bool {
	for _, r := range rules {
		if r.Matches(path) {
			return true
		}
	}
	return false
}
