package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/vpnwatch/vpnwatchd/internal/arbiter"
	"github.com/vpnwatch/vpnwatchd/internal/helperclient"
	"github.com/vpnwatch/vpnwatchd/internal/killswitch"
	"github.com/vpnwatch/vpnwatchd/internal/netprobe"
	"github.com/vpnwatch/vpnwatchd/internal/notify"
	"github.com/vpnwatch/vpnwatchd/internal/power"
	"github.com/vpnwatch/vpnwatchd/internal/reconcile"
	"github.com/vpnwatch/vpnwatchd/internal/tunnelctl"
)

// components bundles every collaborator the daemon-facing subcommands
// wire together, assembled once per invocation from the persistent flags.
type components struct {
	configPath string
	logger     *slog.Logger
	tunnels    *tunnelctl.Controller
	killSwitch *killswitch.Controller
	arb        *arbiter.Arbiter
	engine     *reconcile.Engine
	notifier   *notify.Notifier
	prober     *netprobe.Prober
}

func buildComponents() *components {
	configPath := resolveConfigPath()
	logger := setupLogger(logLevel)

	hcCfg := helperclient.Config{}
	if helperPath != "" {
		hcCfg.HelperPath = helperPath
	} else if env := os.Getenv("VPNWATCH_HELPER_PATH"); env != "" {
		hcCfg.HelperPath = env
	}
	helper := helperclient.NewClient(hcCfg, logger)

	tunnels := tunnelctl.NewController(helper, configPath, logger)
	ks := killswitch.NewController(helper, tunnels, logger)
	arb := arbiter.New(tunnels, ks, configPath, logger)
	notifier := notify.New(logger)

	prober := netprobe.NewProber(
		&netprobe.IWDSource{},
		&netprobe.NMCLISource{},
		&netprobe.NetlinkSource{},
	)
	powerTracker := power.NewTracker(reconcile.DefaultInterval, power.DefaultResumeThresholdFactor)

	engine := reconcile.New(reconcile.Config{}, configPath, tunnels, ks, arb, prober, powerTracker, notifier, logger)

	return &components{
		configPath: configPath,
		logger:     logger,
		tunnels:    tunnels,
		killSwitch: ks,
		arb:        arb,
		engine:     engine,
		notifier:   notifier,
		prober:     prober,
	}
}

// networkActivity reports the display name and live connected state of the
// network currently known as identifier, for feeding the rule- and
// tunnel-cycle operations. A network that isn't currently observed (stale
// policy for a network not in range) is reported as inactive, using the
// identifier itself as a fallback display name.
func networkActivity(ctx context.Context, c *components, identifier string) (displayName string, active bool) {
	networks, err := c.prober.DiscoverNetworks(ctx)
	if err != nil {
		return identifier, false
	}
	for _, n := range networks {
		if n.Identifier() == identifier {
			return n.DisplayName, n.Connected
		}
	}
	return identifier, false
}

// knownTunnelNames returns the names of every tunnel profile ListProfiles
// reports (the union of helper-listed, live and persisted tunnels), sorted
// by name — the order CycleNetworkRule and CycleNetworkTunnel use to pick a
// default/next tunnel.
func knownTunnelNames(ctx context.Context, c *components) []string {
	profiles, err := c.tunnels.ListProfiles(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}
