package reconcile

import (
	"context"

	"github.com/vpnwatch/vpnwatchd/internal/arbiter"
	"github.com/vpnwatch/vpnwatchd/internal/connectivity"
	"github.com/vpnwatch/vpnwatchd/internal/netprobe"
	"github.com/vpnwatch/vpnwatchd/internal/power"
	"github.com/vpnwatch/vpnwatchd/internal/tunnelctl"
)

// TunnelController is the subset of tunnelctl.Controller the engine drives.
type TunnelController interface {
	Connect(ctx context.Context, name string) error
	Disconnect(ctx context.Context) error
	ActiveTunnelName(ctx context.Context) (string, bool)
	GetStatus(ctx context.Context) (tunnelctl.Status, error)
	HealthCheck(ctx context.Context) (connectivity.HealthSnapshot, error)
}

// KillSwitchController is the subset of killswitch.Controller the engine
// consults directly, outside of arbiter-mediated actions (startup
// reconciliation only runs Enable once, with no countdown).
type KillSwitchController interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	IsEnabled(ctx context.Context) (bool, error)
}

// Scheduler is the subset of *arbiter.Arbiter the engine uses to defer and
// apply policy-triggered tunnel actions.
type Scheduler interface {
	Schedule(change arbiter.PendingChange)
	Cancel()
	Pending() (arbiter.PendingChange, bool)
	Tick(ctx context.Context) error
	SetKillSwitchArmed(armed bool)
	KillSwitchArmed() bool
	StatusLog() *arbiter.StatusLog
}

// NetworkProber discovers the host's current network attachments.
type NetworkProber interface {
	DiscoverNetworks(ctx context.Context) ([]netprobe.Network, error)
}

// PowerChecker detects suspend/resume transitions.
type PowerChecker interface {
	Check() power.Result
	ResetBaseline()
}

// Notifier sends fire-and-forget desktop notifications.
type Notifier interface {
	Info(ctx context.Context, summary, body string)
	Critical(ctx context.Context, summary, body string)
}
