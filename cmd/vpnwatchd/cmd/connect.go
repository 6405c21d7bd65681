package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect <name>",
	Short: "Connect the named tunnel",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	c := buildComponents()
	ctx := context.Background()
	name := args[0]

	if err := c.tunnels.Connect(ctx, name); err != nil {
		c.notifier.Critical(ctx, "VPN connect failed", err.Error())
		return fmt.Errorf("vpnwatchd connect: %w", err)
	}

	c.notifier.Info(ctx, "VPN connected", name)
	fmt.Fprintf(cmd.OutOrStdout(), "connected %s\n", name)
	return nil
}
