// Package service implements the relay: one fetch per request, resolved to a model.Result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rss-relay-go/internal/metrics"
	"rss-relay-go/internal/model"
)

// ErrMissingURL is reported when the caller did not supply a target URL.
var ErrMissingURL = errors.New("url query parameter is required")

// StatusError reports a target that answered with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("target responded with HTTP status %d", e.StatusCode)
}

// Fetcher fetches a target URL. Implemented by *client.Fetcher.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*model.UpstreamResponse, error)
}

// RelayService resolves relay requests. It keeps no per-request state and is
// safe for concurrent use.
type RelayService struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRelayService creates a RelayService. The metrics parameter is optional.
func NewRelayService(f Fetcher, logger *slog.Logger, m *metrics.Metrics) *RelayService {
	return &RelayService{
		fetcher: f,
		logger:  logger.With("component", "relay_service"),
		metrics: m,
	}
}

// Relay performs exactly one fetch of req.URL. It never returns the target's
// status or body on failure; those only reach the log.
func (s *RelayService) Relay(req *model.RelayRequest) model.Result {
	res := s.relay(req)
	if s.metrics != nil {
		s.metrics.RelayResults.WithLabelValues(res.Outcome.String()).Inc()
	}
	return res
}

func (s *RelayService) relay(req *model.RelayRequest) model.Result {
	if req.URL == "" {
		return model.Result{Outcome: model.OutcomeMissingURL, Err: ErrMissingURL}
	}

	s.logger.Info("relay request received", "url", req.URL)

	resp, err := s.fetcher.Get(req.Ctx, req.URL)
	if err == nil && !resp.OK() {
		s.logger.Warn("target returned non-success status",
			"url", req.URL,
			"status", resp.StatusCode,
		)
		err = &StatusError{StatusCode: resp.StatusCode}
	}
	if err != nil {
		s.logger.Error("fetch target failed", "url", req.URL, "err", err)
		return model.Result{Outcome: model.OutcomeUpstreamFailed, Err: err}
	}

	s.logger.Debug("fetched target body",
		"url", req.URL,
		"bytes", len(resp.Body),
		"body", string(resp.Body),
	)

	return model.Result{Outcome: model.OutcomeForwarded, Body: resp.Body}
}
