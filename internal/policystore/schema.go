// Package policystore loads and saves the persisted application policy:
// per-network rules, per-tunnel flags, and global switches.
package policystore

// RuleMode is a network rule's VPN posture. The zero value, ModeNone,
// means no rule is stored for an identifier — it is never itself
// persisted as a row in the TOML file.
type RuleMode int

const (
	ModeNone RuleMode = iota
	ModeAlways
	ModeNever
	ModeSession
)

// Next advances a mode through the closed rule cycle:
// None -> Always -> Never -> Session -> None.
func (m RuleMode) Next() RuleMode {
	switch m {
	case ModeNone:
		return ModeAlways
	case ModeAlways:
		return ModeNever
	case ModeNever:
		return ModeSession
	default:
		return ModeNone
	}
}

func (m RuleMode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeNever:
		return "never"
	case ModeSession:
		return "session"
	default:
		return "none"
	}
}

// NetworkRule is a single per-network policy entry. At most one rule
// exists per Identifier; the three mode flags are mutually exclusive in
// the TOML encoding (see ruleRow).
type NetworkRule struct {
	Identifier string
	TunnelName string
	Mode       RuleMode
}

// TunnelInfo is a persisted per-tunnel flag set.
type TunnelInfo struct {
	Name       string
	Protocol   string
	KillSwitch bool
}

// AppConfig is the full persisted policy document.
type AppConfig struct {
	DefaultProfile string
	LastConnected  string
	AutoReconnect  bool
	KillSwitch     bool
	Notifications  bool
	Rules          []NetworkRule
	Tunnels        []TunnelInfo
}

// ruleRow is the TOML-native shape of a [[network_rules]] table: three
// mutually exclusive booleans instead of a Go enum, matching the
// persisted-format schema the original config file actually uses.
type ruleRow struct {
	Identifier string `toml:"identifier"`
	TunnelName string `toml:"tunnel_name"`
	AlwaysVPN  bool   `toml:"always_vpn"`
	NeverVPN   bool   `toml:"never_vpn"`
	SessionVPN bool   `toml:"session_vpn"`
}

type tunnelRow struct {
	Name       string `toml:"name"`
	Protocol   string `toml:"protocol"`
	KillSwitch bool   `toml:"kill_switch"`
}

// documentRow is the root TOML document shape.
type documentRow struct {
	DefaultProfile string      `toml:"default_profile"`
	LastConnected  string      `toml:"last_connected"`
	AutoReconnect  bool        `toml:"auto_reconnect"`
	KillSwitch     bool        `toml:"kill_switch"`
	Notifications  bool        `toml:"notifications"`
	Rules          []ruleRow   `toml:"network_rules"`
	Tunnels        []tunnelRow `toml:"known_tunnels"`
}

func rowFromRule(r NetworkRule) ruleRow {
	row := ruleRow{Identifier: r.Identifier, TunnelName: r.TunnelName}
	switch r.Mode {
	case ModeAlways:
		row.AlwaysVPN = true
	case ModeNever:
		row.NeverVPN = true
	case ModeSession:
		row.SessionVPN = true
	}
	return row
}

func ruleFromRow(row ruleRow) NetworkRule {
	mode := ModeNone
	switch {
	case row.AlwaysVPN:
		mode = ModeAlways
	case row.NeverVPN:
		mode = ModeNever
	case row.SessionVPN:
		mode = ModeSession
	}
	return NetworkRule{Identifier: row.Identifier, TunnelName: row.TunnelName, Mode: mode}
}
