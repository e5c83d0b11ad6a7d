// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/rss-relay/config.toml",
	"configs/config.toml",
}

// reservedRoutes are served by the relay and cannot be shadowed by metrics.path.
var reservedRoutes = []string{"/proxy", "/healthz", "/status"}

// Default redirect rule used by the development server when none is configured.
const (
	defaultRedirectPrefix = "/api"
	defaultRedirectTarget = "https://podcasts.subsplash.com"
)

// CLI holds command-line arguments of the relay, parsed by Kong.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// DevCLI holds command-line arguments of the development server.
type DevCLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Port     int    `kong:"short='p',help='Dev server listen port (overrides config).',env='DEV_PORT'"`
	Static   string `kong:"help='Directory with the built frontend (overrides config).',env='DEV_STATIC_DIR'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Dev      DevConfig      `toml:"dev"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"` // 0 means "use default" (3000)
	BodyMaxBytes int64  `toml:"body_max_bytes"`
}

// UpstreamConfig holds settings of the client used to fetch relay targets.
type UpstreamConfig struct {
	TimeoutSeconds  int `toml:"timeout_seconds"` // 0 leaves the client without a timeout
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DevConfig holds settings of the local development server.
type DevConfig struct {
	Host      string           `toml:"host"`
	Port      int              `toml:"port"`
	StaticDir string           `toml:"static_dir"`
	Redirects []RedirectConfig `toml:"redirects"`
}

// RedirectConfig maps a local path prefix to a remote origin.
type RedirectConfig struct {
	Prefix string `toml:"prefix"`
	Target string `toml:"target"`
}

// Load reads the relay configuration and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/rss-relay/config.toml then configs/config.toml and falls back to
// built-in defaults if neither exists.
func Load(cli *CLI) (*Config, error) {
	cfg, err := load(cli.Config)
	if err != nil {
		return nil, err
	}
	cfg.applyCLI(cli)
	return cfg.finish()
}

// LoadDev reads the configuration for the development server.
func LoadDev(cli *DevCLI) (*Config, error) {
	cfg, err := load(cli.Config)
	if err != nil {
		return nil, err
	}
	cfg.applyDevCLI(cli)
	return cfg.finish()
}

func load(path string) (*Config, error) {
	if path == "" {
		path = findConfig()
	}

	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.filePath = path
	return &cfg, nil
}

func (c *Config) finish() (*Config, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	c.setDefaults()
	return c, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) applyDevCLI(cli *DevCLI) {
	if cli.Port != 0 {
		c.Dev.Port = cli.Port
	}
	if cli.Static != "" {
		c.Dev.StaticDir = cli.Static
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return fmt.Errorf("dev.port must be 0–65535; got %d", c.Dev.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	seen := make(map[string]bool, len(c.Dev.Redirects))
	for i, r := range c.Dev.Redirects {
		if err := r.validate(); err != nil {
			return fmt.Errorf("dev.redirects[%d]: %w", i, err)
		}
		if seen[r.Prefix] {
			return fmt.Errorf("dev.redirects[%d]: duplicate prefix %q", i, r.Prefix)
		}
		seen[r.Prefix] = true
	}

	return nil
}

func (r RedirectConfig) validate() error {
	switch {
	case r.Prefix == "":
		return errors.New("prefix is required")
	case r.Prefix[0] != '/':
		return fmt.Errorf("prefix must start with '/'; got %q", r.Prefix)
	case r.Prefix == "/" || strings.HasSuffix(r.Prefix, "/"):
		return fmt.Errorf("prefix must not be '/' or end with '/'; got %q", r.Prefix)
	}

	if r.Target == "" {
		return errors.New("target is required")
	}
	u, err := url.Parse(r.Target)
	if err != nil {
		return fmt.Errorf("target is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target must be an absolute http(s) URL; got %q", r.Target)
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish an
// explicit 0 from an omitted key. upstream.timeout_seconds is the exception:
// zero leaves the fetch without a client-side timeout.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1024 * 1024 // 1 MB
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Dev.Host == "" {
		c.Dev.Host = "127.0.0.1"
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = 8080
	}
	if len(c.Dev.Redirects) == 0 {
		c.Dev.Redirects = []RedirectConfig{{Prefix: defaultRedirectPrefix, Target: defaultRedirectTarget}}
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the dev server listen address as host:port.
func (c *DevConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
