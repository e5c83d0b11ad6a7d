package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"rss-relay-go/internal/config"
	"rss-relay-go/internal/devproxy"
	"rss-relay-go/internal/logging"
)

func main() {
	var cli config.DevCLI
	kong.Parse(&cli,
		kong.Name("rss-relay-dev"),
		kong.Description("Local development server: forwards configured path prefixes to remote origins."),
	)

	fx.New(
		fx.Provide(
			func() *config.DevCLI { return &cli },
			config.LoadDev,
			newLogger,
			devproxy.NewServer,
		),
		fx.Invoke(startServer),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Log, os.Stdout)
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Dev.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting dev server", "addr", addr, "static_dir", cfg.Dev.StaticDir)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("dev server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down dev server")
			return e.Shutdown(ctx)
		},
	})
}
