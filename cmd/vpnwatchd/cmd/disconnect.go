package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the active tunnel",
	RunE:  runDisconnect,
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	c := buildComponents()
	ctx := context.Background()

	if err := c.tunnels.Disconnect(ctx); err != nil {
		c.notifier.Critical(ctx, "VPN disconnect failed", err.Error())
		return fmt.Errorf("vpnwatchd disconnect: %w", err)
	}

	c.notifier.Info(ctx, "VPN disconnected", "")
	fmt.Fprintln(cmd.OutOrStdout(), "disconnected")
	return nil
}
