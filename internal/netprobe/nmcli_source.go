package netprobe

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
)

// NMCLISource discovers networks via NetworkManager's nmcli CLI, the
// second-richest source in the fallback chain.
type NMCLISource struct{}

func (s *NMCLISource) Name() string { return "nmcli" }

func (s *NMCLISource) Discover(ctx context.Context) ([]Network, error) {
	out, err := exec.CommandContext(ctx, "nmcli", "-t", "-f", "ACTIVE,SSID,DEVICE", "dev", "wifi").Output()
	if err != nil {
		return nil, nil
	}

	var networks []Network
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) < 3 {
			continue
		}
		active, ssid, device := fields[0], fields[1], fields[2]
		if ssid == "" {
			continue
		}
		networks = append(networks, Network{
			DisplayName: ssid,
			Transport:   TransportWifi,
			Device:      device,
			Connected:   active == "yes",
			SSID:        ssid,
		})
	}
	return networks, nil
}

func (s *NMCLISource) Forget(ctx context.Context, net Network) error {
	if net.SSID == "" {
		return ErrNoSuchKnownNetwork
	}
	if err := exec.CommandContext(ctx, "nmcli", "connection", "delete", "id", net.SSID).Run(); err != nil {
		return ErrNoSuchKnownNetwork
	}
	return nil
}
