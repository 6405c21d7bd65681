// Package arbiter implements the single-slot, countdown-debounced pending
// change queue the reconciliation engine schedules user- and
// policy-triggered tunnel actions through.
package arbiter

import (
	"context"
	"time"
)

// Action identifies what a PendingChange does when applied.
type Action int

const (
	ActionConnect Action = iota
	ActionDisconnect
	ActionReconnect
	ActionKillSwitchOn
	ActionKillSwitchOff
)

func (a Action) String() string {
	switch a {
	case ActionConnect:
		return "connect"
	case ActionDisconnect:
		return "disconnect"
	case ActionReconnect:
		return "reconnect"
	case ActionKillSwitchOn:
		return "killswitch-on"
	case ActionKillSwitchOff:
		return "killswitch-off"
	default:
		return "unknown"
	}
}

// DefaultCountdownSeconds is the default cancellable delay before a
// scheduled change is applied.
const DefaultCountdownSeconds = 4

// PendingChange is a scheduled, cancellable intent. At most one exists at
// a time; scheduling a new one replaces any in flight.
type PendingChange struct {
	NetworkID          string
	NetworkDisplayName string
	TunnelName         string
	Action             Action
	CountdownStart     time.Time
	CountdownSeconds   uint8
}

// RemainingSeconds computes the display countdown remaining as of now.
func (p PendingChange) RemainingSeconds(now time.Time) uint8 {
	elapsed := now.Sub(p.CountdownStart)
	total := time.Duration(p.CountdownSeconds) * time.Second
	remaining := total - elapsed
	if remaining <= 0 {
		return 0
	}
	secs := int64(remaining/time.Second) + 1
	if secs > int64(p.CountdownSeconds) {
		secs = int64(p.CountdownSeconds)
	}
	return uint8(secs)
}

// TunnelController is the subset of tunnelctl.Controller the arbiter
// drives actions through.
type TunnelController interface {
	Connect(ctx context.Context, name string) error
	Disconnect(ctx context.Context) error
	ActiveTunnelName(ctx context.Context) (string, bool)
}

// KillSwitchController is the subset of killswitch.Controller the arbiter
// drives actions through.
type KillSwitchController interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	IsEnabled(ctx context.Context) (bool, error)
}
