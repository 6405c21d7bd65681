package arbiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vpnwatch/vpnwatchd/internal/policystore"
)

// Arbiter is the single-slot pending-change queue. Schedule/Cancel/Tick
// are safe for concurrent use; Apply never runs concurrently with itself
// or with a Cancel that observes the slot mid-apply, since both paths
// take the same mutex and Cancel is a no-op once Apply has consumed the
// slot.
type Arbiter struct {
	mu       sync.Mutex
	pending  *PendingChange
	applying bool

	killSwitchArmed bool

	tunnels    TunnelController
	killSwitch KillSwitchController
	configPath string
	logger     *slog.Logger
	status     *StatusLog
}

// New creates an Arbiter driving actions through tunnels and killSwitch,
// persisting policy changes to the config file at configPath.
func New(tunnels TunnelController, killSwitch KillSwitchController, configPath string, logger *slog.Logger) *Arbiter {
	return &Arbiter{
		tunnels:    tunnels,
		killSwitch: killSwitch,
		configPath: configPath,
		logger:     logger.With("component", "arbiter"),
		status:     NewStatusLog(),
	}
}

// StatusLog returns the shared status-line ring buffer.
func (a *Arbiter) StatusLog() *StatusLog { return a.status }

// SetKillSwitchArmed sets the in-memory armed flag directly, used by
// startup reconciliation to reflect a switch that was already enabled
// before this process started.
func (a *Arbiter) SetKillSwitchArmed(armed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.killSwitchArmed = armed
}

// KillSwitchArmed reports the in-memory armed flag.
func (a *Arbiter) KillSwitchArmed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.killSwitchArmed
}

// Schedule sets the pending-change slot, replacing any change already in
// flight (coalescing: the last-expressed intent wins, countdown restarts).
func (a *Arbiter) Schedule(change PendingChange) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if change.CountdownSeconds == 0 {
		change.CountdownSeconds = DefaultCountdownSeconds
	}
	change.CountdownStart = time.Now()
	a.pending = &change
	a.status.Push(fmt.Sprintf("scheduled %s (%s) in %ds", change.Action, change.TunnelName, change.CountdownSeconds))
}

// Cancel clears the pending slot, if any. A no-op once Apply has already
// consumed the slot for this change.
func (a *Arbiter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return
	}
	a.status.Push(fmt.Sprintf("cancelled %s", a.pending.Action))
	a.pending = nil
}

// Pending returns a copy of the pending change and whether one exists.
func (a *Arbiter) Pending() (PendingChange, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return PendingChange{}, false
	}
	return *a.pending, true
}

// Tick decrements the countdown and, once elapsed, consumes the slot and
// applies it. It is safe to call Tick more often than the countdown
// resolution requires — the reconciliation engine's 5s tick and the
// interactive front-end's on-demand `tick` command both call this. A Tick
// that arrives while a change is still being applied leaves any newly
// scheduled change in the slot for a later Tick.
func (a *Arbiter) Tick(ctx context.Context) error {
	a.mu.Lock()
	if a.pending == nil || a.applying {
		a.mu.Unlock()
		return nil
	}
	elapsed := time.Since(a.pending.CountdownStart)
	if elapsed < time.Duration(a.pending.CountdownSeconds)*time.Second {
		a.mu.Unlock()
		return nil
	}
	change := *a.pending
	a.pending = nil
	a.applying = true
	a.mu.Unlock()

	err := a.apply(ctx, change)

	a.mu.Lock()
	a.applying = false
	a.mu.Unlock()
	return err
}

// Applying reports whether a change is currently executing.
func (a *Arbiter) Applying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applying
}

func (a *Arbiter) apply(ctx context.Context, change PendingChange) error {
	a.status.Push(fmt.Sprintf("applying %s (%s)", change.Action, change.TunnelName))

	switch change.Action {
	case ActionConnect:
		return a.applyConnect(ctx, change.TunnelName)
	case ActionDisconnect:
		return a.applyDisconnect(ctx)
	case ActionReconnect:
		return a.applyReconnect(ctx, change.TunnelName)
	case ActionKillSwitchOn:
		return a.applyKillSwitchOn(ctx)
	case ActionKillSwitchOff:
		return a.applyKillSwitchOff(ctx)
	default:
		return fmt.Errorf("arbiter: unknown action %v", change.Action)
	}
}

func (a *Arbiter) applyConnect(ctx context.Context, tunnel string) error {
	if err := a.tunnels.Connect(ctx, tunnel); err != nil {
		a.status.Push(fmt.Sprintf("connect %s failed: %v", tunnel, err))
		return err
	}
	a.persistLastConnected(tunnel)

	if a.tunnelWantsKillSwitch(tunnel) {
		if err := a.killSwitch.Enable(ctx); err != nil {
			a.status.Push(fmt.Sprintf("kill switch enable after connect failed: %v", err))
			return err
		}
		a.SetKillSwitchArmed(true)
	}
	a.status.Push(fmt.Sprintf("connected %s", tunnel))
	return nil
}

func (a *Arbiter) applyDisconnect(ctx context.Context) error {
	if a.KillSwitchArmed() {
		if err := a.killSwitch.Disable(ctx); err != nil {
			a.status.Push(fmt.Sprintf("kill switch disable before disconnect failed: %v", err))
			return err
		}
		a.SetKillSwitchArmed(false)
	}
	_ = a.tunnels.Disconnect(ctx)
	a.status.Push("disconnected")
	return nil
}

func (a *Arbiter) applyReconnect(ctx context.Context, tunnel string) error {
	if a.KillSwitchArmed() {
		if err := a.killSwitch.Disable(ctx); err != nil {
			a.status.Push(fmt.Sprintf("kill switch disable before reconnect failed: %v", err))
			return err
		}
		a.SetKillSwitchArmed(false)
	}
	_ = a.tunnels.Disconnect(ctx)
	return a.applyConnect(ctx, tunnel)
}

func (a *Arbiter) applyKillSwitchOn(ctx context.Context) error {
	if err := a.killSwitch.Enable(ctx); err != nil {
		a.status.Push(fmt.Sprintf("kill switch enable failed: %v", err))
		return err
	}
	a.SetKillSwitchArmed(true)
	a.persistKillSwitchFlag(ctx, true)
	a.status.Push("kill switch enabled")
	return nil
}

func (a *Arbiter) applyKillSwitchOff(ctx context.Context) error {
	if err := a.killSwitch.Disable(ctx); err != nil {
		a.status.Push(fmt.Sprintf("kill switch disable failed: %v", err))
		return err
	}
	a.SetKillSwitchArmed(false)
	a.persistKillSwitchFlag(ctx, false)
	a.status.Push("kill switch disabled")
	return nil
}

// tunnelWantsKillSwitch reports whether the persisted tunnel-info for
// name requests the kill switch be armed on connect.
func (a *Arbiter) tunnelWantsKillSwitch(name string) bool {
	cfg := policystore.Load(a.configPath)
	info, ok := cfg.TunnelInfoFor(name)
	return ok && info.KillSwitch
}

func (a *Arbiter) persistLastConnected(name string) {
	cfg := policystore.Load(a.configPath)
	cfg.LastConnected = name
	if err := policystore.Save(a.configPath, cfg); err != nil {
		a.logger.Warn("failed to persist last_connected", "error", err)
	}
}

// persistKillSwitchFlag persists the kill-switch posture as a per-tunnel
// flag if a tunnel is currently active, else as the global fallback flag.
func (a *Arbiter) persistKillSwitchFlag(ctx context.Context, enabled bool) {
	cfg := policystore.Load(a.configPath)
	if active, ok := a.tunnels.ActiveTunnelName(ctx); ok && active != "" {
		info, _ := cfg.TunnelInfoFor(active)
		info.Name = active
		if info.Protocol == "" {
			info.Protocol = "wireguard"
		}
		info.KillSwitch = enabled
		cfg = cfg.UpsertTunnelInfo(info)
	} else {
		cfg.KillSwitch = enabled
	}
	if err := policystore.Save(a.configPath, cfg); err != nil {
		a.logger.Warn("failed to persist kill switch flag", "error", err)
	}
}
