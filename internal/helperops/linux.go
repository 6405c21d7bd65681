//go:build linux

package helperops

import (
	"fmt"
	"net"
	"time"

	"github.com/vishvananda/netlink"
	"golang.zx2c4.com/wireguard/wgctrl"
)

// splitDefaultLeft and splitDefaultRight mirror tunnelctl's split-default
// route convention: two /1 routes that together cover the address space
// without replacing the kernel's single default route.
var (
	splitDefaultLeft  = mustParseCIDR("0.0.0.0/1")
	splitDefaultRight = mustParseCIDR("128.0.0.0/1")
)

func mustParseCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// installSplitDefaultRoutes adds the split-default /1 pair through iface,
// routing all traffic over the tunnel without disturbing the kernel's
// existing default route.
func installSplitDefaultRoutes(iface string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("helperops: install routes: %w", err)
	}
	for _, dst := range []*net.IPNet{splitDefaultLeft, splitDefaultRight} {
		route := &netlink.Route{LinkIndex: link.Attrs().Index, Dst: dst}
		if err := netlink.RouteAdd(route); err != nil {
			return fmt.Errorf("helperops: install route %s: %w", dst, err)
		}
	}
	return nil
}

// liveWGInterfaceNames enumerates live WireGuard-type interfaces.
func liveWGInterfaceNames() []string {
	links, err := netlink.LinkList()
	if err != nil {
		return nil
	}
	var names []string
	for _, link := range links {
		if link.Type() == "wireguard" {
			names = append(names, link.Attrs().Name)
		}
	}
	return names
}

// formatDeviceStatus reads the named WireGuard device's state and renders
// it as a "key: value" block matching what the core's status parser
// expects: interface, endpoint, latest handshake, transfer.
func formatDeviceStatus(name string) (string, error) {
	client, err := wgctrl.New()
	if err != nil {
		return "", fmt.Errorf("helperops: status: open wgctrl: %w", err)
	}
	defer client.Close()

	dev, err := client.Device(name)
	if err != nil {
		return "", fmt.Errorf("helperops: status: read device %s: %w", name, err)
	}

	lines := []string{"interface: " + name}
	if len(dev.Peers) > 0 {
		peer := dev.Peers[0]
		if peer.Endpoint != nil {
			lines = append(lines, "endpoint: "+peer.Endpoint.String())
		}
		lines = append(lines, "latest handshake: "+handshakePhrase(peer.LastHandshakeTime))
		lines = append(lines, fmt.Sprintf("transfer: %s received, %s sent", formatBytes(uint64(peer.ReceiveBytes)), formatBytes(uint64(peer.TransmitBytes))))
	}
	return joinLines(lines), nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// handshakePhrase renders a handshake time the way "wg show" does: a
// relative phrase in the coarsest unit that applies, or "never" if the
// handshake time is the zero value.
func handshakePhrase(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	elapsed := time.Since(t)
	switch {
	case elapsed >= 24*time.Hour:
		days := int(elapsed / (24 * time.Hour))
		return pluralize(days, "day")
	case elapsed >= time.Hour:
		hours := int(elapsed / time.Hour)
		return pluralize(hours, "hour")
	case elapsed >= time.Minute:
		minutes := int(elapsed / time.Minute)
		return pluralize(minutes, "minute")
	default:
		seconds := int(elapsed / time.Second)
		return pluralize(seconds, "second")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// formatBytes renders n using IEC units (KiB/MiB/GiB/TiB), matching the
// unit set the core's transfer parser recognises.
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for n/div >= unit && exp < 3 {
		div *= unit
		exp++
	}
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	return fmt.Sprintf("%.2f %s", float64(n)/float64(div), units[exp])
}
