package tunnelctl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vpnwatch/vpnwatchd/internal/connectivity"
	"github.com/vpnwatch/vpnwatchd/internal/helperclient"
	"github.com/vpnwatch/vpnwatchd/internal/policystore"
)

// validNamePattern is the filename-safe tunnel-name character set.
var validNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// healthCheckReachTimeout bounds the ICMP reachability probe HealthCheck
// performs on top of the parsed status.
const healthCheckReachTimeout = 3 * time.Second

// Controller drives the tunnel lifecycle through a helperclient.Client and
// keeps the persisted tunnel-info list (in the policy store) in sync.
type Controller struct {
	helper     *helperclient.Client
	configPath string
	logger     *slog.Logger
}

// NewController creates a Controller. configPath is the policy store's
// config.toml location — the same file component G reads and writes.
func NewController(helper *helperclient.Client, configPath string, logger *slog.Logger) *Controller {
	return &Controller{helper: helper, configPath: configPath, logger: logger.With("component", "tunnelctl")}
}

// ListProfiles returns the union of helper-reported profiles, live
// WireGuard interfaces, and matching persisted tunnel-info entries,
// sorted by name. If config-list succeeded, persisted entries absent from
// the helper+live union are pruned from the store as orphaned.
func (c *Controller) ListProfiles(ctx context.Context) ([]Profile, error) {
	liveNames := wgInterfaceNames()
	liveSet := toSet(liveNames)

	listed, listErr := c.helper.Call(ctx, "config-list")
	configListOK := listErr == nil
	var helperNames []string
	if configListOK {
		helperNames = splitLines(listed.Stdout)
	}
	helperSet := toSet(helperNames)

	abUnion := make(map[string]bool, len(helperSet)+len(liveSet))
	for n := range helperSet {
		abUnion[n] = true
	}
	for n := range liveSet {
		abUnion[n] = true
	}

	cfg := policystore.Load(c.configPath)
	var persisted []policystore.TunnelInfo
	for _, t := range cfg.Tunnels {
		if t.Protocol == "wireguard" {
			persisted = append(persisted, t)
		}
	}

	if configListOK {
		var kept []policystore.TunnelInfo
		pruned := false
		for _, t := range persisted {
			if abUnion[t.Name] {
				kept = append(kept, t)
				continue
			}
			pruned = true
			c.logger.Info("pruning orphaned tunnel-info entry", "tunnel", t.Name)
		}
		if pruned {
			newCfg := cfg
			newCfg.Tunnels = nil
			for _, t := range cfg.Tunnels {
				if t.Protocol != "wireguard" {
					newCfg.Tunnels = append(newCfg.Tunnels, t)
				}
			}
			newCfg.Tunnels = append(newCfg.Tunnels, kept...)
			if err := policystore.Save(c.configPath, newCfg); err != nil {
				c.logger.Warn("failed to rewrite store after pruning", "error", err)
			}
		}
		persisted = kept
	}

	union := make(map[string]bool, len(abUnion))
	for n := range abUnion {
		union[n] = true
	}
	for _, t := range persisted {
		union[t.Name] = true
	}

	profiles := make([]Profile, 0, len(union))
	for name := range union {
		profiles = append(profiles, Profile{
			Name:      name,
			Protocol:  "wireguard",
			Connected: liveSet[name],
		})
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// GetStatus calls the helper's "status" verb and parses it. On empty
// output or non-zero exit it falls back to enumerating live WireGuard
// interfaces, reporting only connected+interface. On an unparseable
// non-empty response it returns the conservative fallback status (stale
// handshake, no traffic, routing unknown) rather than an error.
func (c *Controller) GetStatus(ctx context.Context) (Status, error) {
	result, err := c.helper.Call(ctx, "status")
	if err != nil || strings.TrimSpace(result.Stdout) == "" {
		names := wgInterfaceNames()
		if len(names) == 0 {
			return Status{}, nil
		}
		return Status{Connected: true, Interface: names[0]}, nil
	}

	status, perr := ParseStatusText(result.Stdout)
	if perr != nil {
		c.logger.Warn("status output unparseable, using conservative fallback")
		return Status{HandshakeStale: true}, nil
	}

	status.RoutingOK = routingOK(status.Interface)
	return status, nil
}

// ActiveTunnelName reports the name of the currently-connected tunnel, if
// any.
func (c *Controller) ActiveTunnelName(ctx context.Context) (string, bool) {
	status, err := c.GetStatus(ctx)
	if err != nil || !status.Connected {
		return "", false
	}
	return status.Interface, true
}

// Connect disconnects whatever tunnel is currently active (best-effort),
// then connects name. A non-zero helper exit propagates with stderr text.
func (c *Controller) Connect(ctx context.Context, name string) error {
	_ = c.Disconnect(ctx)

	result, err := c.helper.Call(ctx, "connect", name)
	if err != nil {
		return fmt.Errorf("tunnelctl: connect %s: %w", name, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("tunnelctl: connect %s: %s", name, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Disconnect is best-effort: helper errors are logged, never returned.
func (c *Controller) Disconnect(ctx context.Context) error {
	if _, err := c.helper.Call(ctx, "disconnect"); err != nil {
		c.logger.Warn("disconnect call failed", "error", err)
	}
	return nil
}

// AddProfile validates name and body, writes the body through the helper,
// and upserts a tunnel-info record preserving any existing kill-switch
// flag.
func (c *Controller) AddProfile(ctx context.Context, name, body string) error {
	if name == "" || !validNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.Contains(body, "[Interface]") || !strings.Contains(body, "[Peer]") {
		return ErrInvalidBody
	}

	result, err := c.helper.CallWithStdin(ctx, []byte(body), "config-write", name)
	if err != nil {
		return fmt.Errorf("tunnelctl: add profile %s: %w", name, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("tunnelctl: add profile %s: %s", name, strings.TrimSpace(result.Stderr))
	}

	cfg := policystore.Load(c.configPath)
	killSwitch := false
	if existing, ok := cfg.TunnelInfoFor(name); ok {
		killSwitch = existing.KillSwitch
	}
	cfg = cfg.UpsertTunnelInfo(policystore.TunnelInfo{Name: name, Protocol: "wireguard", KillSwitch: killSwitch})
	return policystore.Save(c.configPath, cfg)
}

// DeleteProfile disconnects first if name is the active interface, then
// removes the helper-side config and the tunnel-info entry.
func (c *Controller) DeleteProfile(ctx context.Context, name string) error {
	if active, ok := c.ActiveTunnelName(ctx); ok && active == name {
		_ = c.Disconnect(ctx)
	}

	result, err := c.helper.Call(ctx, "config-delete", name)
	if err != nil {
		return fmt.Errorf("tunnelctl: delete profile %s: %w", name, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("tunnelctl: delete profile %s: %s", name, strings.TrimSpace(result.Stderr))
	}

	cfg := policystore.Load(c.configPath)
	cfg = cfg.RemoveTunnelInfo(name)
	return policystore.Save(c.configPath, cfg)
}

// HealthCheck composes a connectivity.HealthSnapshot from the parsed
// status plus an independent reachability probe.
func (c *Controller) HealthCheck(ctx context.Context) (connectivity.HealthSnapshot, error) {
	status, err := c.GetStatus(ctx)
	if err != nil {
		return connectivity.HealthSnapshot{}, err
	}

	reachable, latency := connectivity.ProbeHost(ctx, "1.1.1.1", healthCheckReachTimeout)
	if !reachable {
		reachable = connectivity.HTTPFallbackProbe(ctx)
	}

	return connectivity.HealthSnapshot{
		InterfaceExists:   status.Connected,
		HasPeer:           status.Endpoint != "",
		HandshakeRecent:   status.Connected && !status.HandshakeStale,
		RoutingConfigured: status.RoutingOK,
		CanReachInternet:  reachable,
		LatencyMs:         latency.Milliseconds(),
	}, nil
}

// GetInterfaceUptime returns the age of the interface's sysfs descriptor.
func (c *Controller) GetInterfaceUptime(iface string) (time.Duration, error) {
	info, err := os.Stat("/sys/class/net/" + iface)
	if err != nil {
		return 0, fmt.Errorf("tunnelctl: interface uptime: %w", err)
	}
	return time.Since(info.ModTime()), nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
