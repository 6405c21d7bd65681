package connectivity

import (
	"context"
	"time"
)

// ProbeHost sends a single ICMP echo to addr and reports whether a reply
// arrived within timeout, along with the round-trip latency. Exported so
// other components (tunnel health checks) can reuse the same unprivileged
// ICMP path instead of re-implementing it.
func ProbeHost(ctx context.Context, addr string, timeout time.Duration) (bool, time.Duration) {
	ok, latency, _ := ping(ctx, addr, timeout)
	return ok, latency
}

// HTTPFallbackProbe performs the captive-portal-style HTTP reachability
// check used whenever ICMP is fully blocked.
func HTTPFallbackProbe(ctx context.Context) bool {
	return httpProbe(ctx)
}
