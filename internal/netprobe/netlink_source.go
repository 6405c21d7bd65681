//go:build linux

package netprobe

import (
	"context"
	"os/exec"
	"strings"

	"github.com/vishvananda/netlink"
)

// NetlinkSource is the fallback-of-last-resort: raw interface enumeration
// via netlink, augmented by a direct `iw dev <dev> link` SSID query for
// wireless devices. It never fails outright — on netlink error it reports
// no networks so the caller can still report "nothing connected".
type NetlinkSource struct{}

func (s *NetlinkSource) Name() string { return "netlink" }

func (s *NetlinkSource) Discover(ctx context.Context) ([]Network, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, nil
	}

	var networks []Network
	for _, link := range links {
		attrs := link.Attrs()
		name := attrs.Name
		if name == "lo" || strings.HasPrefix(name, "wg") || strings.HasPrefix(name, "tun") {
			continue
		}

		up := attrs.OperState == netlink.OperUp

		switch {
		case strings.HasPrefix(name, "wl"):
			ssid := queryIWLinkSSID(ctx, name)
			if ssid == "" && !up {
				continue
			}
			networks = append(networks, Network{
				DisplayName: ssid,
				Transport:   TransportWifi,
				Device:      name,
				Connected:   up && ssid != "",
				SSID:        ssid,
			})
		case strings.HasPrefix(name, "en") || strings.HasPrefix(name, "eth"):
			networks = append(networks, Network{
				DisplayName: name,
				Transport:   TransportEthernet,
				Device:      name,
				Connected:   up,
			})
		}
	}
	return networks, nil
}

func (s *NetlinkSource) Forget(ctx context.Context, net Network) error {
	return ErrNoSuchKnownNetwork
}

// queryIWLinkSSID runs `iw dev <dev> link` and extracts the SSID line.
// Returns "" if the device isn't associated or `iw` is unavailable.
func queryIWLinkSSID(ctx context.Context, dev string) string {
	out, err := exec.CommandContext(ctx, "iw", "dev", dev, "link").Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "SSID:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "SSID:"))
		}
	}
	return ""
}
