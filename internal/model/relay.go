// Package model defines shared types for the relay.
package model

import "context"

// RelayRequest is an inbound request to fetch URL on the caller's behalf.
// An empty URL means the caller did not supply one.
type RelayRequest struct {
	Ctx context.Context
	URL string
}

// UpstreamResponse is the fully read response of a relay target.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the target answered with a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Outcome is the terminal state of a relay request.
type Outcome int

const (
	// OutcomeForwarded means the target body is returned to the caller verbatim.
	OutcomeForwarded Outcome = iota
	// OutcomeMissingURL means the request was rejected before any fetch.
	OutcomeMissingURL
	// OutcomeUpstreamFailed covers transport errors and non-2xx targets.
	OutcomeUpstreamFailed
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeMissingURL:
		return "missing_url"
	case OutcomeUpstreamFailed:
		return "upstream_failed"
	default:
		return "unknown"
	}
}

// Result is what a relay request resolved to. Body is set only for
// OutcomeForwarded. Err holds the diagnostic cause of a failure and is
// never sent to the caller.
type Result struct {
	Outcome Outcome
	Body    []byte
	Err     error
}
