//go:build linux

package power

import (
	"strings"

	"github.com/vishvananda/netlink"
)

// networkReady reports whether any non-tunnel interface is up and carries
// an IPv4 address, via netlink rather than shelling to `ip`.
func networkReady() bool {
	links, err := netlink.LinkList()
	if err != nil {
		return false
	}
	for _, link := range links {
		attrs := link.Attrs()
		name := attrs.Name
		if name == "lo" || strings.HasPrefix(name, "wg") || strings.HasPrefix(name, "tun") {
			continue
		}
		if attrs.OperState != netlink.OperUp {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}
	return false
}
