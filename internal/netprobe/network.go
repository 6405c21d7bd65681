// Package netprobe enumerates the host's network attachments and derives a
// stable identifier used to key per-network policy rules.
package netprobe

import (
	"sort"
	"strings"
)

// Network describes a single observed network attachment.
type Network struct {
	DisplayName string
	Transport   Transport
	Device      string
	Connected   bool
	SSID        string // empty for wired transports
}

// Transport identifies the kind of link a Network rides on.
type Transport string

const (
	TransportWifi     Transport = "wifi"
	TransportEthernet Transport = "ethernet"
)

// Identifier derives the stable, rule-keying identifier for a Network:
// "wifi:<SSID>" if the SSID is known, else "network:<name>" if the display
// name differs from the device name, else "device:<dev>".
func (n Network) Identifier() string {
	if n.SSID != "" {
		return "wifi:" + n.SSID
	}
	if n.DisplayName != "" && n.DisplayName != n.Device {
		return "network:" + n.DisplayName
	}
	return "device:" + n.Device
}

// sortNetworks orders connected networks first, then alphabetically by
// display name (case-insensitive).
func sortNetworks(networks []Network) {
	sort.SliceStable(networks, func(i, j int) bool {
		if networks[i].Connected != networks[j].Connected {
			return networks[i].Connected
		}
		return strings.ToLower(networks[i].DisplayName) < strings.ToLower(networks[j].DisplayName)
	})
}

// normalizeSSID strips terminal escape codes and control characters and
// trims whitespace, matching how the probe normalises SSIDs pulled from
// external tools before they become rule-cycle identifiers.
func normalizeSSID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
