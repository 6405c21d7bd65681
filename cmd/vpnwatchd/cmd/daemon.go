package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the reconciliation engine headless",
	Long: "Run the reconciliation engine until a termination signal is received.\n" +
		"Performs a startup kill-switch reconciliation, then ticks until SIGINT or SIGTERM.",
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	c := buildComponents()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	c.logger.Info("starting vpnwatchd", "version", buildVersion)
	c.engine.StartupReconcile(ctx)

	if err := c.engine.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("vpnwatchd daemon: %w", err)
	}
	c.logger.Info("vpnwatchd stopped")
	return nil
}
