package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vpnwatch/vpnwatchd/internal/policystore"
	"github.com/vpnwatch/vpnwatchd/internal/reconcile"
)

// interactiveCmd is the minimum textual stand-in for the real terminal UI:
// a line-oriented REPL that exercises the arbiter and rule-cycle contract
// without a curses rendering loop.
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Run a line-oriented interactive session",
	Long: "A plain-text stand-in for the terminal UI: type commands, see results.\n" +
		"Commands: status, connect <name>, disconnect, rules, cycle <id>,\n" +
		"cycle-tunnel <id>, killswitch on|off, tick, quit.",
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	c := buildComponents()
	ctx := context.Background()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "vpnwatchd interactive — type 'help' for commands, 'quit' to exit")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, "status | connect <name> | disconnect | rules | cycle <id> | cycle-tunnel <id> | killswitch on|off | tick | quit")
		case "status":
			interactiveStatus(ctx, out, c)
		case "connect":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: connect <name>")
				continue
			}
			if err := c.tunnels.Connect(ctx, fields[1]); err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			fmt.Fprintln(out, "connected", fields[1])
		case "disconnect":
			if err := c.tunnels.Disconnect(ctx); err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			fmt.Fprintln(out, "disconnected")
		case "rules":
			interactiveRules(out, c)
		case "cycle":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: cycle <identifier>")
				continue
			}
			interactiveCycle(ctx, out, c, fields[1])
		case "cycle-tunnel":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: cycle-tunnel <identifier>")
				continue
			}
			interactiveCycleTunnel(ctx, out, c, fields[1])
		case "killswitch":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: killswitch on|off")
				continue
			}
			interactiveKillSwitch(ctx, out, c, fields[1])
		case "tick":
			if err := c.arb.Tick(ctx); err != nil {
				fmt.Fprintln(out, "error:", err)
				continue
			}
			fmt.Fprintln(out, "ticked")
		default:
			fmt.Fprintln(out, "unknown command:", fields[0])
		}
	}
}

func interactiveStatus(ctx context.Context, out io.Writer, c *components) {
	status, err := c.tunnels.GetStatus(ctx)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	fmt.Fprintf(out, "connected=%v interface=%s endpoint=%s handshake_stale=%v routing_ok=%v\n",
		status.Connected, status.Interface, status.Endpoint, status.HandshakeStale, status.RoutingOK)
	if pending, ok := c.arb.Pending(); ok {
		fmt.Fprintf(out, "pending: %s (tunnel=%s, %ds remaining)\n", pending.Action, pending.TunnelName, pending.RemainingSeconds(time.Now()))
	}
}

func interactiveRules(out io.Writer, c *components) {
	cfg := policystore.Load(c.configPath)
	if len(cfg.Rules) == 0 {
		fmt.Fprintln(out, "no rules configured")
		return
	}
	for _, rule := range cfg.Rules {
		fmt.Fprintf(out, "%-40s %-8s tunnel=%s\n", rule.Identifier, rule.Mode, rule.TunnelName)
	}
}

func interactiveCycle(ctx context.Context, out io.Writer, c *components, identifier string) {
	displayName, active := networkActivity(ctx, c, identifier)
	rule, err := reconcile.CycleNetworkRule(c.configPath, identifier, displayName, active, knownTunnelNames(ctx, c), c.arb)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	fmt.Fprintf(out, "%s -> %s (tunnel=%s)\n", identifier, rule.Mode, rule.TunnelName)
}

func interactiveCycleTunnel(ctx context.Context, out io.Writer, c *components, identifier string) {
	displayName, active := networkActivity(ctx, c, identifier)
	rule, err := reconcile.CycleNetworkTunnel(c.configPath, identifier, displayName, active, knownTunnelNames(ctx, c), c.arb)
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	fmt.Fprintf(out, "%s -> tunnel %s (%s)\n", identifier, rule.TunnelName, rule.Mode)
}

func interactiveKillSwitch(ctx context.Context, out io.Writer, c *components, verb string) {
	var err error
	switch verb {
	case "on":
		err = c.killSwitch.Enable(ctx)
	case "off":
		err = c.killSwitch.Disable(ctx)
	default:
		fmt.Fprintln(out, "usage: killswitch on|off")
		return
	}
	if err != nil {
		fmt.Fprintln(out, "error:", err)
		return
	}
	fmt.Fprintln(out, "ok")
}
