// Package cmd implements the vpnwatchd CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vpnwatch/vpnwatchd/internal/policystore"
)

var (
	cfgFile    string
	logLevel   string
	helperPath string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("vpnwatchd version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "vpnwatchd",
	Short: "vpnwatchd watches the active network and drives a WireGuard tunnel",
	Long: "vpnwatchd is a host-resident VPN orchestrator for a single-user workstation.\n" +
		"It watches which network is currently attached, applies a per-network policy\n" +
		"to decide whether a tunnel should be up, drives the tunnel through a privileged\n" +
		"helper, and enforces a kill switch when requested.",
	// A bare invocation runs the interactive stand-in, the same as the
	// explicit `interactive` subcommand.
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/vpnwatch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&helperPath, "helper", "", "path to vpnwatch-helper (overrides VPNWATCH_HELPER_PATH)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("vpnwatchd version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	path, err := policystore.DefaultConfigPath()
	if err != nil {
		return "config.toml"
	}
	return path
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
