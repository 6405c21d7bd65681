package connectivity

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// ping sends a single unprivileged ICMP echo to addr and reports whether a
// reply arrived within timeout, along with the round-trip latency.
// Uses an unprivileged "udp4" ICMP socket (no CAP_NET_RAW required), the
// same approach the example pack's networking stack favors over shelling
// out to the system ping binary.
func ping(ctx context.Context, addr string, timeout time.Duration) (bool, time.Duration, error) {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return false, 0, fmt.Errorf("connectivity: ping: listen: %w", err)
	}
	defer conn.Close()

	dst, err := net.ResolveIPAddr("ip4", addr)
	if err != nil {
		return false, 0, fmt.Errorf("connectivity: ping: resolve %s: %w", addr, err)
	}

	id := int(time.Now().UnixNano() & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  1,
			Data: []byte("vpnwatch"),
		},
	}
	raw, err := msg.Marshal(nil)
	if err != nil {
		return false, 0, fmt.Errorf("connectivity: ping: marshal: %w", err)
	}

	start := time.Now()
	if _, err := conn.WriteTo(raw, &net.UDPAddr{IP: dst.IP}); err != nil {
		return false, 0, fmt.Errorf("connectivity: ping: write: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return false, 0, fmt.Errorf("connectivity: ping: set deadline: %w", err)
	}

	reply := make([]byte, 1500)
	n, _, err := conn.ReadFrom(reply)
	if err != nil {
		return false, 0, nil // timeout: not reachable, not an error
	}
	latency := time.Since(start)

	parsed, err := icmp.ParseMessage(1, reply[:n])
	if err != nil {
		return false, latency, nil
	}
	if parsed.Type != ipv4.ICMPTypeEchoReply {
		return false, latency, nil
	}
	return true, latency, nil
}
