// Package client provides the outbound HTTP client used to fetch relay targets.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"rss-relay-go/internal/config"
	"rss-relay-go/internal/metrics"
	"rss-relay-go/internal/model"
)

// Fetcher issues plain GET requests to caller-supplied URLs.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewFetcher creates a Fetcher with connection pooling.
// The client timeout is left unset unless upstream.timeout_seconds is positive,
// and redirects follow the net/http default policy.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewFetcher(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Fetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Fetcher{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "fetcher"),
		metrics: m,
	}
}

// Get fetches rawURL and reads the whole response body, whatever the status.
// The provided context controls the lifetime of the request: when the
// inbound client disconnects, the fetch is canceled.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	f.logger.Debug("fetching target", "host", req.URL.Host)

	start := time.Now()
	defer func() {
		if f.metrics != nil {
			f.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
		}
	}()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if f.metrics != nil {
		f.metrics.UpstreamResponses.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
