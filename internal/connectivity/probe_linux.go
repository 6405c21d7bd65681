//go:build linux

package connectivity

import (
	"context"
	"strings"
	"time"

	"github.com/vishvananda/netlink"
)

// internetProbeHosts are tried in order for the has_internet gate.
var internetProbeHosts = []string{"1.1.1.1", "8.8.8.8", "9.9.9.9"}

// quickCheckHost is used for a fast single-echo internet check.
const quickCheckHost = "1.1.1.1"

// HostConnectivity evaluates connectivity gates in strict order,
// short-circuiting on the first failure: has_interface -> has_ip_address ->
// can_reach_gateway -> has_internet.
func HostConnectivity(ctx context.Context) (Status, error) {
	var status Status

	iface, ok := findUpNonTunnelInterface()
	status.HasInterface = ok
	if !ok {
		return status, nil
	}

	status.HasIPAddress = interfaceHasNonLoopbackAddress(iface)
	if !status.HasIPAddress {
		return status, nil
	}

	gw, ok := defaultGateway()
	if ok {
		gwCtx, cancel := context.WithTimeout(ctx, time.Second)
		reachable, _, _ := ping(gwCtx, gw, time.Second)
		cancel()
		status.CanReachGateway = reachable
	}
	if !status.CanReachGateway {
		return status, nil
	}

	for _, host := range internetProbeHosts {
		hostCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		reachable, latency, _ := ping(hostCtx, host, 2*time.Second)
		cancel()
		if reachable {
			status.HasInternet = true
			status.LatencyMs = latency.Milliseconds()
			return status, nil
		}
	}

	// Total ICMP failure: fall back to the HTTP captive-portal probe.
	httpCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	start := time.Now()
	status.HasInternet = httpProbe(httpCtx)
	cancel()
	if status.HasInternet {
		status.LatencyMs = time.Since(start).Milliseconds()
	}
	return status, nil
}

// QuickInternetCheck does a single ICMP echo to 1.1.1.1 with a 2s timeout.
func QuickInternetCheck(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	reachable, _, _ := ping(checkCtx, quickCheckHost, 2*time.Second)
	return reachable
}

func isVirtualOrTunnelIface(name string) bool {
	return name == "lo" ||
		strings.HasPrefix(name, "wg") ||
		strings.HasPrefix(name, "tun") ||
		strings.HasPrefix(name, "docker") ||
		strings.HasPrefix(name, "veth") ||
		strings.HasPrefix(name, "br-")
}

func findUpNonTunnelInterface() (netlink.Link, bool) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, false
	}
	for _, link := range links {
		attrs := link.Attrs()
		if isVirtualOrTunnelIface(attrs.Name) {
			continue
		}
		if attrs.OperState == netlink.OperUp {
			return link, true
		}
	}
	return nil, false
}

func interfaceHasNonLoopbackAddress(link netlink.Link) bool {
	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if addr.IP.IsLoopback() {
			continue
		}
		return true
	}
	return false
}

func defaultGateway() (string, bool) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", false
	}
	for _, route := range routes {
		if route.Dst == nil && route.Gw != nil {
			return route.Gw.String(), true
		}
	}
	return "", false
}
