package relay

import "time"

// Outcome classifies how a request ended.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeMethodNotAllowed Outcome = "method_not_allowed"
	OutcomeMisconfigured    Outcome = "misconfigured"
	OutcomeUpstreamError    Outcome = "upstream_error"
	OutcomeInternalError    Outcome = "internal_error"
)

// Observer receives request outcomes and upstream round-trip timings.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOutcome(outcome Outcome)
	// ObserveUpstream is called once per upstream call. Status is 0 when no
	// response was received.
	ObserveUpstream(status int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(Outcome)             {}
func (nopObserver) ObserveUpstream(int, time.Duration) {}
