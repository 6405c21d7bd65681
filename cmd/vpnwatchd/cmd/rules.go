package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vpnwatch/vpnwatchd/internal/policystore"
	"github.com/vpnwatch/vpnwatchd/internal/reconcile"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List or cycle persisted per-network rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted network rules",
	RunE:  runRulesList,
}

var rulesCycleCmd = &cobra.Command{
	Use:   "cycle <identifier>",
	Short: "Advance a network's rule through the None -> Always -> Never -> Session -> None cycle",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesCycle,
}

var rulesCycleTunnelCmd = &cobra.Command{
	Use:   "cycle-tunnel <identifier>",
	Short: "Advance a network's rule to the next known tunnel",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesCycleTunnel,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesCycleCmd, rulesCycleTunnelCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	configPath := resolveConfigPath()
	cfg := policystore.Load(configPath)

	w := cmd.OutOrStdout()
	if len(cfg.Rules) == 0 {
		fmt.Fprintln(w, "no rules configured")
		return nil
	}
	for _, rule := range cfg.Rules {
		fmt.Fprintf(w, "%-40s %-8s tunnel=%s\n", rule.Identifier, rule.Mode, rule.TunnelName)
	}
	return nil
}

func runRulesCycle(cmd *cobra.Command, args []string) error {
	identifier := args[0]
	c := buildComponents()
	ctx := context.Background()

	displayName, active := networkActivity(ctx, c, identifier)
	rule, err := reconcile.CycleNetworkRule(c.configPath, identifier, displayName, active, knownTunnelNames(ctx, c), c.arb)
	if err != nil {
		return fmt.Errorf("vpnwatchd rules cycle: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (tunnel=%s)\n", identifier, rule.Mode, rule.TunnelName)
	return nil
}

func runRulesCycleTunnel(cmd *cobra.Command, args []string) error {
	identifier := args[0]
	c := buildComponents()
	ctx := context.Background()

	displayName, active := networkActivity(ctx, c, identifier)
	rule, err := reconcile.CycleNetworkTunnel(c.configPath, identifier, displayName, active, knownTunnelNames(ctx, c), c.arb)
	if err != nil {
		return fmt.Errorf("vpnwatchd rules cycle-tunnel: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s -> tunnel %s (%s)\n", identifier, rule.TunnelName, rule.Mode)
	return nil
}
