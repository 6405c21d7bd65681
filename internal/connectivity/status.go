// Package connectivity implements layered reachability probes (interface,
// address, gateway, internet) and the public-IP lookup used to display
// diagnostics.
package connectivity

// Status is a host connectivity snapshot, evaluated gate by gate.
type Status struct {
	HasInterface    bool
	HasIPAddress    bool
	CanReachGateway bool
	HasInternet     bool
	LatencyMs       int64
}

// HealthSnapshot is a tunnel health snapshot derived from status parsing
// plus a reachability probe.
type HealthSnapshot struct {
	InterfaceExists   bool
	HasPeer           bool
	HandshakeRecent   bool
	RoutingConfigured bool
	CanReachInternet  bool
	LatencyMs         int64
}

// Healthy reports whether the tunnel is fully usable.
func (h HealthSnapshot) Healthy() bool {
	return h.InterfaceExists && h.HasPeer && h.RoutingConfigured && h.CanReachInternet
}

// Degraded reports whether the tunnel is up but impaired.
func (h HealthSnapshot) Degraded() bool {
	return h.InterfaceExists && h.HasPeer && (!h.HandshakeRecent || !h.RoutingConfigured)
}
