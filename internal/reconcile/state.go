package reconcile

import "time"

// state is the reconciliation engine's in-memory state. It is owned by a
// single goroutine (the Run loop) and never accessed concurrently, so it
// carries no lock of its own.
type state struct {
	lastNetworkID string

	wasConnected bool

	reconnectAttempts     int
	nextReconnectEligible time.Time

	lastHealthCheck time.Time
}

func newState() *state {
	return &state{}
}

// reconnectEligible reports whether a reconnect attempt may run now.
func (s *state) reconnectEligible(now time.Time) bool {
	return !now.Before(s.nextReconnectEligible)
}

// scheduleNextReconnect sets the earliest time a further reconnect attempt
// may run, per the exponential backoff schedule.
func (s *state) scheduleNextReconnect(now time.Time, delay time.Duration) {
	s.nextReconnectEligible = now.Add(delay)
}

// resetReconnect clears reconnect escalation state, run on a successful
// reconnect, a network change, or resume recovery.
func (s *state) resetReconnect() {
	s.reconnectAttempts = 0
	s.nextReconnectEligible = time.Time{}
}

// healthCheckDue reports whether the health-check cadence has elapsed.
func (s *state) healthCheckDue(now time.Time, interval time.Duration) bool {
	return s.lastHealthCheck.IsZero() || now.Sub(s.lastHealthCheck) >= interval
}
