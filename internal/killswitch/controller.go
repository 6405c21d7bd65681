// Package killswitch drives the kill-switch posture through
// helperclient, with the two-phase verify-and-retry disable protocol the
// rest of the system depends on to never report a false "disabled".
package killswitch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vpnwatch/vpnwatchd/internal/helperclient"
)

// TunnelStatusSource resolves the interface the kill switch should protect.
// Satisfied by *tunnelctl.Controller.
type TunnelStatusSource interface {
	ActiveTunnelName(ctx context.Context) (string, bool)
}

// ignoredDisableErrors are stderr substrings that indicate the firewall
// table was already absent — not a real failure to disable.
var ignoredDisableErrors = []string{"no such table", "does not exist"}

// Controller is the single source of truth for kill-switch state: callers
// never rely on an in-memory flag to confirm the switch is armed or not.
type Controller struct {
	helper  *helperclient.Client
	tunnels TunnelStatusSource
	logger  *slog.Logger
}

// NewController creates a Controller.
func NewController(helper *helperclient.Client, tunnels TunnelStatusSource, logger *slog.Logger) *Controller {
	return &Controller{helper: helper, tunnels: tunnels, logger: logger.With("component", "killswitch")}
}

// Enable resolves the active tunnel interface and arms the kill switch
// against it. It fails loudly if the helper refuses, so a caller never
// believes the switch is armed when it is not.
func (c *Controller) Enable(ctx context.Context) error {
	iface, ok := c.tunnels.ActiveTunnelName(ctx)
	if !ok || iface == "" {
		return ErrNoActiveTunnel
	}

	result, err := c.helper.Call(ctx, "killswitch-on", iface)
	if err != nil {
		return fmt.Errorf("killswitch: enable: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("killswitch: enable: %s", strings.TrimSpace(result.Stderr))
	}

	c.logger.Info("kill switch enabled", "interface", iface)
	return nil
}

// Disable calls killswitch-off, tolerating "already absent" errors, then
// verifies via killswitch-status and retries once if the switch still
// reports enabled. A switch that survives the retry is a critical,
// non-negotiable failure: stale kill switches silently black-hole the
// host.
func (c *Controller) Disable(ctx context.Context) error {
	if err := c.callDisable(ctx); err != nil {
		return err
	}

	enabled, err := c.IsEnabled(ctx)
	if err != nil {
		return fmt.Errorf("killswitch: disable: verify: %w", err)
	}
	if !enabled {
		c.logger.Info("kill switch disabled")
		return nil
	}

	c.logger.Warn("kill switch still enabled after disable, retrying")
	if err := c.callDisable(ctx); err != nil {
		return err
	}

	enabled, err = c.IsEnabled(ctx)
	if err != nil {
		return fmt.Errorf("killswitch: disable: verify retry: %w", err)
	}
	if enabled {
		c.logger.Error("kill switch failed to disable after retry")
		return ErrInconsistentState
	}

	c.logger.Info("kill switch disabled on retry")
	return nil
}

func (c *Controller) callDisable(ctx context.Context) error {
	result, err := c.helper.Call(ctx, "killswitch-off")
	if err == nil {
		return nil
	}
	for _, ignored := range ignoredDisableErrors {
		if strings.Contains(strings.ToLower(result.Stderr), ignored) {
			return nil
		}
	}
	return fmt.Errorf("killswitch: disable: %w", err)
}

// IsEnabled queries the live firewall state via killswitch-status; never a
// cached in-memory flag.
func (c *Controller) IsEnabled(ctx context.Context) (bool, error) {
	result, err := c.helper.Call(ctx, "killswitch-status")
	if err != nil {
		return false, fmt.Errorf("killswitch: is enabled: %w", err)
	}
	return strings.TrimSpace(result.Stdout) == "enabled", nil
}
