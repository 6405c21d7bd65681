//go:build linux

package tunnelctl

import (
	"net"

	"github.com/vishvananda/netlink"
)

// splitDefaultLeft and splitDefaultRight are WireGuard's split-default
// route convention: two /1 routes that together cover the whole address
// space without replacing the kernel's single default route.
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

// routingOK reports whether the default route, or the split-default /1
// pair, traverses iface. Reading the routing table requires no privilege.
func routingOK(iface string) bool {
	if iface == "" {
		return false
	}
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return false
	}
	linkIndex := link.Attrs().Index

	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return false
	}

	sawLeft, sawRight := false, false
	for _, route := range routes {
		if route.LinkIndex != linkIndex {
			continue
		}
		if route.Dst == nil {
			// A nil Dst is the kernel's default route.
			return true
		}
		if sameNet(route.Dst, splitDefaultLeft) {
			sawLeft = true
		}
		if sameNet(route.Dst, splitDefaultRight) {
			sawRight = true
		}
	}
	return sawLeft && sawRight
}

func sameNet(a, b *net.IPNet) bool {
	return a.String() == b.String()
}

// wgInterfaceNames enumerates live WireGuard-type interfaces via netlink,
// used as the status fallback when the helper call fails or returns
// nothing, and as one of the ListProfiles union sources.
func wgInterfaceNames() []string {
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
