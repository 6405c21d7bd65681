package netprobe

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
)

// IWDSource discovers wireless networks via iwd's iwctl CLI. No iwd client
// library exists in Go, so this backend shells out, matching the teacher's
// own convention of driving external tooling through exec.Command when no
// native client is available.
type IWDSource struct {
	Device string // e.g. "wlan0"
}

func (s *IWDSource) Name() string { return "iwd" }

func (s *IWDSource) Discover(ctx context.Context) ([]Network, error) {
	device := s.Device
	if device == "" {
		device = "wlan0"
	}

	out, err := exec.CommandContext(ctx, "iwctl", "station", device, "show").Output()
	if err != nil {
		return nil, nil // iwd not installed or station missing: fall through
	}

	ssid := parseIWDConnectedNetwork(string(out))
	if ssid == "" {
		return nil, nil
	}
	return []Network{{
		DisplayName: ssid,
		Transport:   TransportWifi,
		Device:      device,
		Connected:   true,
		SSID:        ssid,
	}}, nil
}

func (s *IWDSource) Forget(ctx context.Context, net Network) error {
	if net.SSID == "" {
		return ErrNoSuchKnownNetwork
	}
	device := s.Device
	if device == "" {
		device = "wlan0"
	}
	if err := exec.CommandContext(ctx, "iwctl", "known-networks", net.SSID, "forget").Run(); err != nil {
		return ErrNoSuchKnownNetwork
	}
	return nil
}

// parseIWDConnectedNetwork scans `iwctl station <dev> show` output for the
// "Connected network" row.
func parseIWDConnectedNetwork(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Connected network") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		return strings.Join(fields[2:], " ")
	}
	return ""
}
