package reconcile

import (
	"errors"
	"fmt"

	"github.com/vpnwatch/vpnwatchd/internal/arbiter"
	"github.com/vpnwatch/vpnwatchd/internal/policystore"
)

// ErrNoTunnelsAvailable is returned by CycleNetworkTunnel when no tunnel
// profile exists to select.
var ErrNoTunnelsAvailable = errors.New("reconcile: no tunnels available")

// CycleNetworkRule advances identifier's rule through the None -> Always ->
// Never -> Session -> None cycle and persists it. If the cycle lands on
// Always and the rule carries no tunnel, the first entry of tunnelNames is
// adopted as its default. When active is true (the network is the one
// currently attached) the matching Connect/Disconnect is scheduled on sched
// with the arbiter's default countdown; an inactive network only updates
// the stored policy.
func CycleNetworkRule(configPath, identifier, displayName string, active bool, tunnelNames []string, sched Scheduler) (policystore.NetworkRule, error) {
	cfg := policystore.Load(configPath)
	rule, _ := cfg.RuleFor(identifier)
	rule.Identifier = identifier
	rule.Mode = rule.Mode.Next()

	action, hasAction := arbiter.ActionConnect, false
	switch rule.Mode {
	case policystore.ModeAlways:
		if rule.TunnelName == "" || rule.TunnelName == "none" {
			if len(tunnelNames) > 0 {
				rule.TunnelName = tunnelNames[0]
			}
		}
		if rule.TunnelName != "" && rule.TunnelName != "none" {
			action, hasAction = arbiter.ActionConnect, true
		}
	case policystore.ModeNever:
		action, hasAction = arbiter.ActionDisconnect, true
	case policystore.ModeSession:
		if rule.TunnelName != "" && rule.TunnelName != "none" {
			action, hasAction = arbiter.ActionConnect, true
		}
	default: // ModeNone
		action, hasAction = arbiter.ActionDisconnect, true
	}

	cfg = cfg.SetRule(rule)
	if err := policystore.Save(configPath, cfg); err != nil {
		return rule, fmt.Errorf("reconcile: cycle network rule: %w", err)
	}

	if active && hasAction {
		sched.Schedule(arbiter.PendingChange{
			NetworkID:          identifier,
			NetworkDisplayName: displayName,
			TunnelName:         rule.TunnelName,
			Action:             action,
		})
	}

	return rule, nil
}

// CycleNetworkTunnel advances identifier's rule to the next tunnel in
// tunnelNames (wrapping around), creating an Always rule if none exists yet
// and otherwise preserving the existing mode. When active is true and the
// resulting mode is Always or Session, a Reconnect onto the newly selected
// tunnel is scheduled on sched with the arbiter's default countdown.
func CycleNetworkTunnel(configPath, identifier, displayName string, active bool, tunnelNames []string, sched Scheduler) (policystore.NetworkRule, error) {
	if len(tunnelNames) == 0 {
		return policystore.NetworkRule{}, ErrNoTunnelsAvailable
	}

	cfg := policystore.Load(configPath)
	rule, hasRule := cfg.RuleFor(identifier)

	currentIdx := -1
	if hasRule {
		for i, name := range tunnelNames {
			if name == rule.TunnelName {
				currentIdx = i
				break
			}
		}
	}
	nextIdx := 0
	if currentIdx >= 0 {
		nextIdx = (currentIdx + 1) % len(tunnelNames)
	}

	mode := policystore.ModeAlways
	if hasRule && rule.Mode != policystore.ModeNone {
		mode = rule.Mode
	}

	newRule := policystore.NetworkRule{
		Identifier: identifier,
		TunnelName: tunnelNames[nextIdx],
		Mode:       mode,
	}

	cfg = cfg.SetRule(newRule)
	if err := policystore.Save(configPath, cfg); err != nil {
		return newRule, fmt.Errorf("reconcile: cycle network tunnel: %w", err)
	}

	if active && (mode == policystore.ModeAlways || mode == policystore.ModeSession) {
		sched.Schedule(arbiter.PendingChange{
			NetworkID:          identifier,
			NetworkDisplayName: displayName,
			TunnelName:         newRule.TunnelName,
			Action:             arbiter.ActionReconnect,
		})
	}

	return newRule, nil
}
