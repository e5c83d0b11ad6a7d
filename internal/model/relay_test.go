package model

import "testing"

func TestUpstreamResponse_OK(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{301, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		r := &UpstreamResponse{StatusCode: tt.status}
		if got := r.OK(); got != tt.want {
			t.Errorf("OK() with status %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{OutcomeForwarded, "forwarded"},
		{OutcomeMissingURL, "missing_url"},
		{OutcomeUpstreamFailed, "upstream_failed"},
		{Outcome(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.o), got, tt.want)
		}
	}
}
