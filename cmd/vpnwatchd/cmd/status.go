package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vpnwatch/vpnwatchd/internal/connectivity"
	"github.com/vpnwatch/vpnwatchd/internal/tunnelctl"
)

// statusOutput is the JSON shape a waybar/polybar-style status widget
// consumes: text for the compact label, tooltip for the hover detail.
type statusOutput struct {
	Text      string `json:"text"`
	Tooltip   string `json:"tooltip"`
	Class     string `json:"class"`
	Alt       string `json:"alt"`
	Connected bool   `json:"connected"`
	Interface string `json:"interface"`
	Endpoint  string `json:"endpoint"`
	Healthy   bool   `json:"healthy"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print current tunnel status as JSON",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	c := buildComponents()
	ctx := context.Background()

	status, err := c.tunnels.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("vpnwatchd status: %w", err)
	}

	var health connectivity.HealthSnapshot
	if status.Connected {
		health, _ = c.tunnels.HealthCheck(ctx)
	}

	out := buildStatusOutput(status, health)

	w := cmd.OutOrStdout()
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func buildStatusOutput(status tunnelctl.Status, health connectivity.HealthSnapshot) statusOutput {
	out := statusOutput{
		Connected: status.Connected,
		Interface: status.Interface,
		Endpoint:  status.Endpoint,
		Healthy:   health.Healthy(),
	}

	switch {
	case !status.Connected:
		out.Text = "VPN: off"
		out.Tooltip = "No tunnel connected"
		out.Class = "disconnected"
	case health.Healthy():
		out.Text = "VPN: " + status.Interface
		out.Tooltip = fmt.Sprintf("%s via %s", status.Interface, status.Endpoint)
		out.Class = "connected"
	default:
		out.Text = "VPN: degraded"
		out.Tooltip = fmt.Sprintf("%s via %s (degraded)", status.Interface, status.Endpoint)
		out.Class = "degraded"
	}
	out.Alt = out.Class
	return out
}
