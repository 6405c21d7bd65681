package helperops

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vpnwatch/vpnwatchd/internal/nftfw"
	"github.com/vpnwatch/vpnwatchd/internal/wireguard"
)

// Lifecycle drives the WireGuard interface and kill-switch lifecycle on
// behalf of the verbs the helper dispatches. The interface name is always
// the tunnel profile name — a single-user workstation runs at most one
// active tunnel at a time.
type Lifecycle struct {
	wg       wireguard.WGController
	fw       nftfw.Controller
	store    *Store
	wgConfig wireguard.Config
	logger   *slog.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(wg wireguard.WGController, fw nftfw.Controller, store *Store, wgConfig wireguard.Config, logger *slog.Logger) *Lifecycle {
	wgConfig.ApplyDefaults()
	return &Lifecycle{wg: wg, fw: fw, store: store, wgConfig: wgConfig, logger: logger.With("component", "helperops")}
}

// Connect tears down any existing WireGuard interface, then brings up name
// from its persisted body: interface creation, address, MTU, peer, then the
// link is set up only once the device is fully configured, and the
// split-default routes are installed after that (a route failure is logged,
// not returned).
func (l *Lifecycle) Connect(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := l.Disconnect(); err != nil {
		return fmt.Errorf("helperops: connect %s: teardown existing: %w", name, err)
	}

	body, err := l.store.Read(name)
	if err != nil {
		return fmt.Errorf("helperops: connect %s: %w", name, err)
	}

	spec, err := wireguard.ParseTunnelSpec(body)
	if err != nil {
		return fmt.Errorf("helperops: connect %s: %w", name, err)
	}

	privKey, err := base64.StdEncoding.DecodeString(spec.PrivateKey)
	if err != nil {
		return fmt.Errorf("helperops: connect %s: decode private key: %w", name, err)
	}

	listenPort := spec.ListenPort
	if listenPort == 0 {
		listenPort = l.wgConfig.ListenPort
	}

	if err := l.wg.CreateInterface(name, privKey, listenPort); err != nil {
		return fmt.Errorf("helperops: connect %s: %w", name, err)
	}

	if spec.Address != "" {
		if err := l.wg.ConfigureAddress(name, spec.Address); err != nil {
			return fmt.Errorf("helperops: connect %s: %w", name, err)
		}
	}

	mtu := spec.MTU
	if mtu == 0 {
		mtu = l.wgConfig.MTU
	}
	if mtu > 0 {
		if err := l.wg.SetMTU(name, mtu); err != nil {
			return fmt.Errorf("helperops: connect %s: %w", name, err)
		}
	}

	peer, err := wireguard.PeerConfigFromSpec(spec)
	if err != nil {
		return fmt.Errorf("helperops: connect %s: %w", name, err)
	}
	if err := l.wg.AddPeer(name, peer); err != nil {
		return fmt.Errorf("helperops: connect %s: %w", name, err)
	}

	if err := l.wg.SetInterfaceUp(name); err != nil {
		return fmt.Errorf("helperops: connect %s: %w", name, err)
	}

	if err := installSplitDefaultRoutes(name); err != nil {
		l.logger.Warn("split-default route install failed", "interface", name, "error", err)
	}

	l.logger.Info("tunnel connected", "tunnel", name)
	return nil
}

// Disconnect tears down every live WireGuard interface. Idempotent: no
// interfaces present is success.
func (l *Lifecycle) Disconnect() error {
	names := liveWGInterfaceNames()
	for _, name := range names {
		if err := l.wg.DeleteInterface(name); err != nil {
			return fmt.Errorf("helperops: disconnect: %w", err)
		}
		l.logger.Info("tunnel disconnected", "tunnel", name)
	}
	return nil
}

// Status renders the live WireGuard device state in the "key: value"
// block format the core's status parser expects: one block per device,
// blank-line separated.
func (l *Lifecycle) Status() (string, error) {
	names := liveWGInterfaceNames()
	var blocks []string
	for _, name := range names {
		block, err := formatDeviceStatus(name)
		if err != nil {
			l.logger.Warn("status read failed", "interface", name, "error", err)
			continue
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// KillSwitchOn arms the kill switch against iface.
func (l *Lifecycle) KillSwitchOn(iface string) error {
	return l.fw.Enable(iface)
}

// KillSwitchOff disarms the kill switch.
func (l *Lifecycle) KillSwitchOff() error {
	return l.fw.Disable()
}

// KillSwitchStatus reports "enabled" or "disabled".
func (l *Lifecycle) KillSwitchStatus() (string, error) {
	enabled, err := l.fw.IsEnabled()
	if err != nil {
		return "", err
	}
	if enabled {
		return "enabled", nil
	}
	return "disabled", nil
}
