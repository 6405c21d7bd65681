package wireguard

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// WGController abstracts OS-level WireGuard operations for testability.
type WGController interface {
	CreateInterface(name string, privateKey []byte, listenPort int) error
	// DeleteInterface deletes the named WireGuard interface.
	// Implementations must be idempotent: deleting a non-existent interface must return nil.
	DeleteInterface(name string) error
	ConfigureAddress(name string, address string) error
	SetInterfaceUp(name string) error
	SetMTU(name string, mtu int) error
	AddPeer(iface string, cfg PeerConfig) error
	RemovePeer(iface string, publicKey []byte) error
}

// PeerConfig holds the WireGuard-native configuration for a single peer.
type PeerConfig struct {
	PublicKey           []byte
	Endpoint            string
	AllowedIPs          []string
	PSK                 []byte // nil if no PSK
	PersistentKeepalive int
}

// TunnelSpec is the parsed form of a wg-quick-style tunnel config body: an
// [Interface] section describing the local side and a single [Peer]
// section describing the remote side. The helper never interprets more
// than these two sections — the body is otherwise opaque, matching the
// section-presence-only validation the core performs before a write.
type TunnelSpec struct {
	PrivateKey string // base64, from [Interface]
	Address    string // CIDR, from [Interface]
	ListenPort int
	MTU        int

	PublicKey           string // base64, from [Peer]
	PresharedKey        string // base64, optional
	Endpoint            string
	AllowedIPs          []string
	PersistentKeepalive int
}

// ParseTunnelSpec parses a minimal INI-style WireGuard config body. It is
// deliberately forgiving of whitespace and comment lines, matching what
// wg-quick itself tolerates, but requires an [Interface] and a [Peer]
// section to be present. Repeated sections are not rejected: their keys
// are read into the same single TunnelSpec, so a later value overwrites an
// earlier one and AllowedIPs accumulate.
func ParseTunnelSpec(body string) (TunnelSpec, error) {
	var spec TunnelSpec
	section := ""
	sawInterface := false
	sawPeer := false

	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			switch section {
			case "interface":
				sawInterface = true
			case "peer":
				sawPeer = true
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch section {
		case "interface":
			switch key {
			case "privatekey":
				spec.PrivateKey = value
			case "address":
				spec.Address = value
			case "listenport":
				if n, err := strconv.Atoi(value); err == nil {
					spec.ListenPort = n
				}
			case "mtu":
				if n, err := strconv.Atoi(value); err == nil {
					spec.MTU = n
				}
			}
		case "peer":
			switch key {
			case "publickey":
				spec.PublicKey = value
			case "presharedkey":
				spec.PresharedKey = value
			case "endpoint":
				spec.Endpoint = value
			case "allowedips":
				for _, ip := range strings.Split(value, ",") {
					ip = strings.TrimSpace(ip)
					if ip != "" {
						spec.AllowedIPs = append(spec.AllowedIPs, ip)
					}
				}
			case "persistentkeepalive":
				if n, err := strconv.Atoi(value); err == nil {
					spec.PersistentKeepalive = n
				}
			}
		}
	}

	if !sawInterface || !sawPeer {
		return TunnelSpec{}, fmt.Errorf("wireguard: parse tunnel spec: missing [Interface] or [Peer] section")
	}
	if spec.PrivateKey == "" {
		return TunnelSpec{}, fmt.Errorf("wireguard: parse tunnel spec: [Interface] missing PrivateKey")
	}
	if spec.PublicKey == "" {
		return TunnelSpec{}, fmt.Errorf("wireguard: parse tunnel spec: [Peer] missing PublicKey")
	}
	return spec, nil
}

// PeerConfigFromSpec translates a parsed TunnelSpec's peer fields into a
// PeerConfig. PublicKey and PresharedKey are decoded from base64; an empty
// PresharedKey is allowed.
func PeerConfigFromSpec(spec TunnelSpec) (PeerConfig, error) {
	pubKey, err := base64.StdEncoding.DecodeString(spec.PublicKey)
	if err != nil {
		return PeerConfig{}, fmt.Errorf("wireguard: decode public key: %w", err)
	}

	var psk []byte
	if spec.PresharedKey != "" {
		psk, err = base64.StdEncoding.DecodeString(spec.PresharedKey)
		if err != nil {
			return PeerConfig{}, fmt.Errorf("wireguard: decode psk: %w", err)
		}
	}

	return PeerConfig{
		PublicKey:           pubKey,
		Endpoint:            spec.Endpoint,
		AllowedIPs:          spec.AllowedIPs,
		PSK:                 psk,
		PersistentKeepalive: spec.PersistentKeepalive,
	}, nil
}
