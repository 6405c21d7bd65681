//go:build linux

package wireguard

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/vishvananda/netlink"
	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// NetlinkController drives a single WireGuard interface through Linux
// netlink (link/address lifecycle) and wgctrl (device/peer configuration).
// The helper only ever has at most one tunnel interface live at a time —
// callers are expected to DeleteInterface the previous one before creating
// the next, matching the single-tunnel-per-workstation model.
type NetlinkController struct {
	logger *slog.Logger
}

// NewNetlinkController returns a NetlinkController logging through logger.
func NewNetlinkController(logger *slog.Logger) *NetlinkController {
	return &NetlinkController{logger: logger}
}

// CreateInterface brings up a new WireGuard link named name and configures
// its private key and listen port. The link is created down; callers must
// call SetInterfaceUp once address/peer configuration is complete.
func (c *NetlinkController) CreateInterface(name string, privateKey []byte, listenPort int) error {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = name
	link := &netlink.GenericLink{LinkAttrs: attrs, LinkType: "wireguard"}

	if err := netlink.LinkAdd(link); err != nil {
		return fmt.Errorf("wireguard: create interface %s: %w", name, err)
	}
	c.logger.Debug("link added", "tunnel", name)

	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("wireguard: create interface %s: open wgctrl: %w", name, err)
	}
	defer client.Close()

	key, err := wgtypes.NewKey(privateKey)
	if err != nil {
		return fmt.Errorf("wireguard: create interface %s: parse private key: %w", name, err)
	}

	if err := client.ConfigureDevice(name, wgtypes.Config{
		PrivateKey: &key,
		ListenPort: &listenPort,
	}); err != nil {
		return fmt.Errorf("wireguard: create interface %s: configure device: %w", name, err)
	}

	c.logger.Info("tunnel interface created", "tunnel", name, "listen_port", listenPort)
	return nil
}

// DeleteInterface removes the named interface. Idempotent: a missing
// interface is not an error, since Disconnect calls this unconditionally.
func (c *NetlinkController) DeleteInterface(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("wireguard: delete interface %s: %w", name, err)
	}

	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("wireguard: delete interface %s: %w", name, err)
	}
	c.logger.Info("tunnel interface deleted", "tunnel", name)
	return nil
}

// ConfigureAddress assigns a CIDR address to the named interface.
func (c *NetlinkController) ConfigureAddress(name string, address string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("wireguard: configure address on %s: %w", name, err)
	}

	addr, err := netlink.ParseAddr(address)
	if err != nil {
		return fmt.Errorf("wireguard: configure address on %s: parse %q: %w", name, address, err)
	}

	if err := netlink.AddrAdd(link, addr); err != nil {
		return fmt.Errorf("wireguard: configure address on %s: %w", name, err)
	}
	c.logger.Debug("address assigned", "tunnel", name, "address", address)
	return nil
}

// SetInterfaceUp brings the named interface into the UP operational state.
// Called last in the connect sequence so traffic never flows through a
// half-configured tunnel.
func (c *NetlinkController) SetInterfaceUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("wireguard: set %s up: %w", name, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("wireguard: set %s up: %w", name, err)
	}
	c.logger.Debug("tunnel interface up", "tunnel", name)
	return nil
}

// SetMTU sets the MTU on the named interface. The caller
// (Lifecycle.Connect) skips this call when the mtu is not positive.
func (c *NetlinkController) SetMTU(name string, mtu int) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("wireguard: set mtu on %s: %w", name, err)
	}
	if err := netlink.LinkSetMTU(link, mtu); err != nil {
		return fmt.Errorf("wireguard: set mtu on %s: %w", name, err)
	}
	c.logger.Debug("mtu set", "tunnel", name, "mtu", mtu)
	return nil
}

// AddPeer configures the tunnel's single remote peer. A fresh wgctrl
// client is opened per call — the helper invokes this once per connect,
// so the per-call cost is negligible and avoids keeping a netlink socket
// open across the lifetime of the controller.
func (c *NetlinkController) AddPeer(iface string, cfg PeerConfig) error {
	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("wireguard: add peer on %s: open wgctrl: %w", iface, err)
	}
	defer client.Close()

	pubKey, err := wgtypes.NewKey(cfg.PublicKey)
	if err != nil {
		return fmt.Errorf("wireguard: add peer on %s: parse public key: %w", iface, err)
	}

	peerCfg := wgtypes.PeerConfig{
		PublicKey:         pubKey,
		ReplaceAllowedIPs: true,
	}

	if cfg.Endpoint != "" {
		udpAddr, err := net.ResolveUDPAddr("udp", cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("wireguard: add peer on %s: resolve endpoint %q: %w", iface, cfg.Endpoint, err)
		}
		peerCfg.Endpoint = udpAddr
	}

	for _, cidr := range cfg.AllowedIPs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("wireguard: add peer on %s: parse allowed-ip %q: %w", iface, cidr, err)
		}
		peerCfg.AllowedIPs = append(peerCfg.AllowedIPs, *ipNet)
	}

	if len(cfg.PSK) > 0 {
		psk, err := wgtypes.NewKey(cfg.PSK)
		if err != nil {
			return fmt.Errorf("wireguard: add peer on %s: parse preshared key: %w", iface, err)
		}
		peerCfg.PresharedKey = &psk
	}

	if cfg.PersistentKeepalive > 0 {
		keepalive := time.Duration(cfg.PersistentKeepalive) * time.Second
		peerCfg.PersistentKeepaliveInterval = &keepalive
	}

	if err := client.ConfigureDevice(iface, wgtypes.Config{
		Peers: []wgtypes.PeerConfig{peerCfg},
	}); err != nil {
		return fmt.Errorf("wireguard: add peer on %s: configure device: %w", iface, err)
	}
	c.logger.Debug("peer configured", "tunnel", iface)
	return nil
}

// RemovePeer removes the peer identified by publicKey from iface. Not
// exercised by the single-peer connect/disconnect flow today, but kept on
// the WGController interface since DeleteInterface already tears the
// whole device down — RemovePeer exists for symmetry and any future
// peer-rotation path without a full reconnect.
func (c *NetlinkController) RemovePeer(iface string, publicKey []byte) error {
	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("wireguard: remove peer on %s: open wgctrl: %w", iface, err)
	}
	defer client.Close()

	pubKey, err := wgtypes.NewKey(publicKey)
	if err != nil {
		return fmt.Errorf("wireguard: remove peer on %s: parse public key: %w", iface, err)
	}

	if err := client.ConfigureDevice(iface, wgtypes.Config{
		Peers: []wgtypes.PeerConfig{
			{PublicKey: pubKey, Remove: true},
		},
	}); err != nil {
		return fmt.Errorf("wireguard: remove peer on %s: configure device: %w", iface, err)
	}
	c.logger.Debug("peer removed", "tunnel", iface)
	return nil
}
