package netprobe

import "context"

// Source is a single network-discovery backend. Discover returns an empty
// slice (not an error) when the backend found nothing; it returns an error
// only when the backend itself is unusable (binary missing, parse failure).
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]Network, error)
	// Forget asks this backend to remove a saved network. Implementations
	// return ErrNoSuchKnownNetwork if they don't recognise it.
	Forget(ctx context.Context, net Network) error
}

// Prober runs a fallback chain of Sources, richest first, falling through
// on empty results or errors, and merges their output into one normalised
// list.
type Prober struct {
	sources []Source
}

// NewProber builds a Prober over the given sources, tried in order.
func NewProber(sources ...Source) *Prober {
	return &Prober{sources: sources}
}

// DiscoverNetworks tries each source in order, stopping at the first one
// that yields at least one network. Each source's output passes through
// SSID normalisation and cross-source de-duplication (by SSID, preferring
// the connected record) before being returned.
func (p *Prober) DiscoverNetworks(ctx context.Context) ([]Network, error) {
	var lastErr error
	for _, src := range p.sources {
		networks, err := src.Discover(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(networks) == 0 {
			continue
		}
		merged := mergeNetworks(networks)
		sortNetworks(merged)
		return merged, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// ForgetNetwork removes a saved network, trying the wireless daemon first
// and falling back to the connection manager.
func (p *Prober) ForgetNetwork(ctx context.Context, net Network) error {
	var lastErr error = ErrNoSuchKnownNetwork
	for _, src := range p.sources {
		err := src.Forget(ctx, net)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// mergeNetworks normalises SSIDs and coalesces duplicate SSIDs across
// sources, preferring the record reporting connected=true.
func mergeNetworks(networks []Network) []Network {
	bySSID := make(map[string]int)
	var merged []Network

	for _, n := range networks {
		n.SSID = normalizeSSID(n.SSID)
		if n.SSID == "" {
			merged = append(merged, n)
			continue
		}
		if idx, ok := bySSID[n.SSID]; ok {
			if n.Connected && !merged[idx].Connected {
				merged[idx] = n
			}
			continue
		}
		bySSID[n.SSID] = len(merged)
		merged = append(merged, n)
	}
	return merged
}
