// Package reconcile implements the single control loop that ticks the
// arbiter, runs periodic health checks, and reacts to network change and
// system resume by scheduling tunnel and kill-switch actions.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vpnwatch/vpnwatchd/internal/arbiter"
	"github.com/vpnwatch/vpnwatchd/internal/connectivity"
	"github.com/vpnwatch/vpnwatchd/internal/netprobe"
	"github.com/vpnwatch/vpnwatchd/internal/policystore"
	"github.com/vpnwatch/vpnwatchd/internal/power"
)

// maxReconnectAttemptShift caps the exponent used in the reconnect backoff
// computation (base * 2^min(attempt, 4)).
const maxReconnectAttemptShift = 4

// Engine is the reconciliation control loop.
type Engine struct {
	cfg        Config
	configPath string
	logger     *slog.Logger

	tunnels    TunnelController
	killSwitch KillSwitchController
	arbiter    Scheduler
	prober     NetworkProber
	power      PowerChecker
	notifier   Notifier

	state *state
}

// New creates an Engine. Config defaults are applied automatically.
func New(cfg Config, configPath string, tunnels TunnelController, killSwitch KillSwitchController, sched Scheduler, prober NetworkProber, pc PowerChecker, notifier Notifier, logger *slog.Logger) *Engine {
	cfg.ApplyDefaults()
	return &Engine{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger.With("component", "reconcile"),
		tunnels:    tunnels,
		killSwitch: killSwitch,
		arbiter:    sched,
		prober:     prober,
		power:      pc,
		notifier:   notifier,
		state:      newState(),
	}
}

// StartupReconcile performs the one-time startup check: if a tunnel is
// already connected and its persisted tunnel-info requests the kill
// switch but it is not currently armed, it is armed immediately, with no
// countdown. The converse (an armed switch whose active tunnel no longer
// requests it) is deliberately left unreconciled at startup.
func (e *Engine) StartupReconcile(ctx context.Context) {
	status, err := e.tunnels.GetStatus(ctx)
	if err != nil || !status.Connected {
		return
	}

	active, ok := e.tunnels.ActiveTunnelName(ctx)
	if !ok {
		return
	}

	cfg := policystore.Load(e.configPath)
	info, found := cfg.TunnelInfoFor(active)
	if !found || !info.KillSwitch {
		return
	}

	armed, err := e.killSwitch.IsEnabled(ctx)
	if err != nil || armed {
		e.arbiter.SetKillSwitchArmed(armed)
		return
	}

	e.logger.Info("arming kill switch at startup for already-connected tunnel", "tunnel", active)
	if err := e.killSwitch.Enable(ctx); err != nil {
		e.logger.Error("startup kill switch arm failed", "tunnel", active, "error", err)
		return
	}
	e.arbiter.SetKillSwitchArmed(true)
}

// Run blocks, ticking every cfg.Interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("reconciliation engine started", "interval", e.cfg.Interval, "health_check_interval", e.cfg.HealthCheckInterval)

	e.runTick(ctx)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("reconciliation engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

// runTick executes a single reconciliation cycle with panic recovery, so
// an unexpected panic in a probe never takes down the daemon.
func (e *Engine) runTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in reconciliation tick", "panic", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
		}
	}()

	if err := e.arbiter.Tick(ctx); err != nil {
		e.logger.Warn("arbiter tick failed", "error", err)
	}

	result := e.power.Check()
	if result.JustResumed {
		e.resumeRecovery(ctx)
		return
	}

	networks, err := e.prober.DiscoverNetworks(ctx)
	if err != nil {
		e.logger.Debug("network discovery failed", "error", err)
	}

	current, ok := currentNetwork(networks)
	currentID := ""
	var displayName string
	if ok {
		currentID = current.Identifier()
		displayName = current.DisplayName
	}

	if currentID != e.state.lastNetworkID {
		e.onNetworkChange(ctx, e.state.lastNetworkID, currentID, displayName)
		e.state.lastNetworkID = currentID
	}

	if e.state.healthCheckDue(time.Now(), e.cfg.HealthCheckInterval) {
		e.state.lastHealthCheck = time.Now()
		e.vpnLiveness(ctx, currentID)
	}
}

// currentNetwork returns the connected network from a discovery result, if
// any.
func currentNetwork(networks []netprobe.Network) (netprobe.Network, bool) {
	for _, n := range networks {
		if n.Connected {
			return n, true
		}
	}
	return netprobe.Network{}, false
}

// onNetworkChange handles a transition between network identifiers: it
// clears a Session rule on the network just left, then evaluates the rule
// for the network just entered.
func (e *Engine) onNetworkChange(ctx context.Context, oldID, newID, displayName string) {
	e.logger.Info("network change detected", "from", oldID, "to", newID)
	e.state.resetReconnect()

	if oldID != "" {
		cfg := policystore.Load(e.configPath)
		if rule, ok := cfg.RuleFor(oldID); ok && rule.Mode == policystore.ModeSession {
			cfg = cfg.ClearRule(oldID)
			if err := policystore.Save(e.configPath, cfg); err != nil {
				e.logger.Warn("failed to clear session rule", "error", err)
			}
		}
	}

	if newID == "" {
		return
	}

	cfg := policystore.Load(e.configPath)
	rule, ok := cfg.RuleFor(newID)
	if !ok || rule.Mode == policystore.ModeNone {
		return
	}

	switch rule.Mode {
	case policystore.ModeAlways, policystore.ModeSession:
		tunnel := rule.TunnelName
		if tunnel == "" || tunnel == "none" {
			tunnel = cfg.DefaultProfile
		}
		if tunnel == "" {
			return
		}
		e.arbiter.Schedule(arbiter.PendingChange{
			NetworkID:          newID,
			NetworkDisplayName: displayName,
			TunnelName:         tunnel,
			Action:             arbiter.ActionConnect,
			CountdownSeconds:   e.cfg.CountdownSeconds,
		})
		e.notifier.Info(ctx, "VPN policy", fmt.Sprintf("connecting %s on %s", tunnel, displayName))
	case policystore.ModeNever:
		e.arbiter.Schedule(arbiter.PendingChange{
			NetworkID:          newID,
			NetworkDisplayName: displayName,
			Action:             arbiter.ActionDisconnect,
			CountdownSeconds:   e.cfg.CountdownSeconds,
		})
		e.notifier.Info(ctx, "VPN policy", fmt.Sprintf("disconnecting on %s", displayName))
	}
}

// vpnLiveness runs the 30s-cadence health check: it schedules a bounded
// reconnect if the tunnel dropped unexpectedly, or if it's connected but
// unhealthy.
func (e *Engine) vpnLiveness(ctx context.Context, currentID string) {
	status, err := e.tunnels.GetStatus(ctx)
	if err != nil {
		e.logger.Debug("liveness status check failed", "error", err)
		return
	}

	wasConnected := e.state.wasConnected
	e.state.wasConnected = status.Connected

	cfg := policystore.Load(e.configPath)
	rule, hasRule := cfg.RuleFor(currentID)
	wantsVPN := hasRule && (rule.Mode == policystore.ModeAlways || rule.Mode == policystore.ModeSession)

	if wasConnected && !status.Connected && wantsVPN {
		e.maybeReconnect(ctx, rule, cfg)
		return
	}

	if status.Connected {
		healthy, herr := e.verifyVPNHealth(ctx)
		if herr == nil && !healthy {
			e.maybeReconnect(ctx, rule, cfg)
		}
	}
}

// verifyVPNHealth composes a health snapshot and reports whether the
// tunnel is fully usable.
func (e *Engine) verifyVPNHealth(ctx context.Context) (bool, error) {
	snapshot, err := e.tunnels.HealthCheck(ctx)
	if err != nil {
		return false, err
	}
	return snapshot.Healthy(), nil
}

// maybeReconnect runs the reconnect procedure if the backoff schedule
// permits and the attempt budget isn't exhausted.
func (e *Engine) maybeReconnect(ctx context.Context, rule policystore.NetworkRule, cfg policystore.AppConfig) {
	if !e.state.reconnectEligible(time.Now()) {
		return
	}
	if e.state.reconnectAttempts >= e.cfg.MaxReconnectAttempts {
		e.notifier.Critical(ctx, "VPN reconnect failed", "giving up after repeated attempts; will retry on the next network change")
		e.state.resetReconnect()
		return
	}

	tunnel := rule.TunnelName
	if tunnel == "" || tunnel == "none" {
		tunnel = cfg.DefaultProfile
	}
	if tunnel == "" {
		return
	}

	e.reconnect(ctx, tunnel)
}

// reconnect runs one attempt of the disconnect/sleep/connect/sleep/verify
// sequence. On failure it schedules the next eligible attempt time via
// exponential backoff rather than blocking the tick loop.
func (e *Engine) reconnect(ctx context.Context, tunnel string) {
	e.state.reconnectAttempts++
	attempt := e.state.reconnectAttempts
	e.logger.Info("reconnect attempt", "tunnel", tunnel, "attempt", attempt)

	_ = e.tunnels.Disconnect(ctx)
	sleepCtx(ctx, 500*time.Millisecond)

	if err := e.tunnels.Connect(ctx, tunnel); err != nil {
		e.logger.Warn("reconnect connect failed", "tunnel", tunnel, "error", err)
		e.state.scheduleNextReconnect(time.Now(), reconnectBackoff(attempt, e.cfg))
		return
	}
	sleepCtx(ctx, time.Second)

	status, err := e.tunnels.GetStatus(ctx)
	healthy, _ := e.verifyVPNHealth(ctx)
	if err == nil && status.Connected && healthy {
		e.notifier.Info(ctx, "VPN reconnected", tunnel)
		e.state.resetReconnect()
		return
	}

	e.state.scheduleNextReconnect(time.Now(), reconnectBackoff(attempt, e.cfg))
}

// reconnectBackoff computes base*2^min(attempt,shiftCap), capped at
// cfg.ReconnectMaxDelay.
func reconnectBackoff(attempt int, cfg Config) time.Duration {
	shift := attempt
	if shift > maxReconnectAttemptShift {
		shift = maxReconnectAttemptShift
	}
	delay := cfg.ReconnectBaseDelay * time.Duration(1<<uint(shift))
	if delay > cfg.ReconnectMaxDelay {
		delay = cfg.ReconnectMaxDelay
	}
	return delay
}

// resumeRecovery runs after a suspend/resume gap is detected: it waits for
// the network to come back, lets it stabilise, checks host connectivity,
// and re-evaluates the current rule against the post-resume tunnel state.
func (e *Engine) resumeRecovery(ctx context.Context) {
	e.logger.Info("resume detected, running recovery")

	if !power.WaitForNetworkReady(ctx, e.cfg.ResumeNetworkReadyTimeout) {
		e.logger.Warn("resume recovery: network did not become ready in time")
	}
	sleepCtx(ctx, e.cfg.ResumeStabilizationDelay)

	status, err := connectivity.HostConnectivity(ctx)
	if err != nil || !status.HasInternet {
		e.notifier.Info(ctx, "Resumed from suspend", "no internet connectivity yet")
		e.power.ResetBaseline()
		e.state.resetReconnect()
		return
	}

	networks, _ := e.prober.DiscoverNetworks(ctx)
	current, ok := currentNetwork(networks)
	currentID := ""
	if ok {
		currentID = current.Identifier()
	}
	e.state.lastNetworkID = currentID

	cfg := policystore.Load(e.configPath)
	rule, hasRule := cfg.RuleFor(currentID)
	active, connected := e.tunnels.ActiveTunnelName(ctx)

	switch {
	case hasRule && rule.Mode == policystore.ModeAlways:
		tunnel := rule.TunnelName
		if tunnel == "" || tunnel == "none" {
			tunnel = cfg.DefaultProfile
		}
		if !connected || active != tunnel {
			if tunnel != "" {
				e.arbiter.Schedule(arbiter.PendingChange{NetworkID: currentID, TunnelName: tunnel, Action: arbiter.ActionConnect, CountdownSeconds: 0})
			}
		} else if healthy, herr := e.verifyVPNHealth(ctx); herr == nil && !healthy {
			e.arbiter.Schedule(arbiter.PendingChange{NetworkID: currentID, TunnelName: tunnel, Action: arbiter.ActionReconnect, CountdownSeconds: 0})
		}
	case hasRule && rule.Mode == policystore.ModeSession:
		cfg = cfg.ClearRule(currentID)
		if err := policystore.Save(e.configPath, cfg); err != nil {
			e.logger.Warn("failed to clear session rule on resume", "error", err)
		}
		if connected {
			e.arbiter.Schedule(arbiter.PendingChange{NetworkID: currentID, Action: arbiter.ActionDisconnect, CountdownSeconds: 0})
		}
	case hasRule && rule.Mode == policystore.ModeNever:
		if connected {
			e.arbiter.Schedule(arbiter.PendingChange{NetworkID: currentID, Action: arbiter.ActionDisconnect, CountdownSeconds: 0})
		}
	default:
		if connected {
			if healthy, herr := e.verifyVPNHealth(ctx); herr == nil && !healthy {
				e.arbiter.Schedule(arbiter.PendingChange{NetworkID: currentID, Action: arbiter.ActionDisconnect, CountdownSeconds: 0})
			}
		}
	}

	e.power.ResetBaseline()
	e.state.resetReconnect()
}

// sleepCtx sleeps for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
