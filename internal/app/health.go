package app

import (
	"sync/atomic"

	"github.com/florianilch/prompt-relay/internal/proxy"
)

// Health tracks whether the proxy accepts traffic. Ready between a successful
// start and the beginning of shutdown. All methods are thread-safe.
type Health struct {
	ready atomic.Bool
}

// Compile-time check that Health implements proxy.ReadinessChecker interface
var _ proxy.ReadinessChecker = (*Health)(nil)

// NewHealth creates a Health instance initialized as not ready.
func NewHealth() *Health {
	return &Health{}
}

// SetReady updates the readiness state.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}
