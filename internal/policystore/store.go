package policystore

import (
	"bytes"
	"os"
	"path/filepath"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/vpnwatch/vpnwatchd/internal/fsutil"
)

// appName names the config subdirectory under the user config root.
const appName = "vpnwatch"

// configFileName is the persisted document's file name.
const configFileName = "config.toml"

// DefaultConfigPath resolves the config file location via os.UserConfigDir.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load reads and parses the config file at path. On any read or parse
// failure it falls back to an empty default configuration rather than
// propagating the error, so a corrupt config never prevents the daemon
// from starting.
func Load(path string) AppConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}
	}

	var doc documentRow
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return AppConfig{}
	}

	cfg := AppConfig{
		DefaultProfile: doc.DefaultProfile,
		LastConnected:  doc.LastConnected,
		AutoReconnect:  doc.AutoReconnect,
		KillSwitch:     doc.KillSwitch,
		Notifications:  doc.Notifications,
	}
	for _, row := range doc.Rules {
		cfg.Rules = append(cfg.Rules, ruleFromRow(row))
	}
	for _, row := range doc.Tunnels {
		cfg.Tunnels = append(cfg.Tunnels, TunnelInfo{Name: row.Name, Protocol: row.Protocol, KillSwitch: row.KillSwitch})
	}
	return cfg
}

// Save sanitises and serialises cfg, writing it atomically (temp file in
// the same directory, then rename) to path.
func Save(path string, cfg AppConfig) error {
	sanitized := sanitize(cfg)

	doc := documentRow{
		DefaultProfile: sanitized.DefaultProfile,
		LastConnected:  sanitized.LastConnected,
		AutoReconnect:  sanitized.AutoReconnect,
		KillSwitch:     sanitized.KillSwitch,
		Notifications:  sanitized.Notifications,
	}
	for _, rule := range sanitized.Rules {
		doc.Rules = append(doc.Rules, rowFromRule(rule))
	}
	for _, tunnel := range sanitized.Tunnels {
		doc.Tunnels = append(doc.Tunnels, tunnelRow{Name: tunnel.Name, Protocol: tunnel.Protocol, KillSwitch: tunnel.KillSwitch})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return fsutil.ReplaceFile(path, buf.Bytes(), 0o600)
}

// sanitize drops malformed rules and normalises empty tunnel names, per
// the save-time invariants: rules whose identifier is empty, too short
// (<=5 chars), or contains control characters are dropped; an empty
// tunnel_name is normalised to "none".
func sanitize(cfg AppConfig) AppConfig {
	out := cfg
	out.Rules = nil
	for _, rule := range cfg.Rules {
		if !validIdentifier(rule.Identifier) {
			continue
		}
		if rule.TunnelName == "" {
			rule.TunnelName = "none"
		}
		out.Rules = append(out.Rules, rule)
	}
	return out
}

func validIdentifier(id string) bool {
	if len(id) <= 5 {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// RuleFor returns the rule for identifier, if one exists.
func (c AppConfig) RuleFor(identifier string) (NetworkRule, bool) {
	for _, rule := range c.Rules {
		if rule.Identifier == identifier {
			return rule, true
		}
	}
	return NetworkRule{}, false
}

// SetRule upserts a rule for identifier. Mode=ModeNone deletes it.
func (c AppConfig) SetRule(rule NetworkRule) AppConfig {
	out := c
	out.Rules = nil
	found := false
	for _, existing := range c.Rules {
		if existing.Identifier == rule.Identifier {
			found = true
			if rule.Mode != ModeNone {
				out.Rules = append(out.Rules, rule)
			}
			continue
		}
		out.Rules = append(out.Rules, existing)
	}
	if !found && rule.Mode != ModeNone {
		out.Rules = append(out.Rules, rule)
	}
	return out
}

// ClearRule removes any rule for identifier.
func (c AppConfig) ClearRule(identifier string) AppConfig {
	return c.SetRule(NetworkRule{Identifier: identifier, Mode: ModeNone})
}

// TunnelInfoFor returns the persisted flags for tunnel name, if known.
func (c AppConfig) TunnelInfoFor(name string) (TunnelInfo, bool) {
	for _, t := range c.Tunnels {
		if t.Name == name {
			return t, true
		}
	}
	return TunnelInfo{}, false
}

// UpsertTunnelInfo inserts or replaces the tunnel-info entry for t.Name.
func (c AppConfig) UpsertTunnelInfo(t TunnelInfo) AppConfig {
	out := c
	out.Tunnels = nil
	found := false
	for _, existing := range c.Tunnels {
		if existing.Name == t.Name {
			out.Tunnels = append(out.Tunnels, t)
			found = true
			continue
		}
		out.Tunnels = append(out.Tunnels, existing)
	}
	if !found {
		out.Tunnels = append(out.Tunnels, t)
	}
	return out
}

// RemoveTunnelInfo deletes the tunnel-info entry for name, if present.
func (c AppConfig) RemoveTunnelInfo(name string) AppConfig {
	out := c
	out.Tunnels = nil
	for _, existing := range c.Tunnels {
		if existing.Name == name {
			continue
		}
		out.Tunnels = append(out.Tunnels, existing)
	}
	return out
}
