//go:build linux

package nftfw

import (
	"fmt"
	"log/slog"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
)

// NftablesController implements Controller using the Linux nftables
// subsystem via the google/nftables netlink library. It owns a single
// "inet" table dedicated to the kill switch; nothing else may write to it.
type NftablesController struct {
	cfg    Config
	logger *slog.Logger
}

// NewNftablesController returns a new NftablesController. Config defaults
// are applied automatically.
func NewNftablesController(cfg Config, logger *slog.Logger) *NftablesController {
	cfg.ApplyDefaults()
	return &NftablesController{cfg: cfg, logger: logger}
}

// Enable installs the kill-switch table: a base output chain with policy
// drop, an accept rule for loopback, and an accept rule for the named
// tunnel interface. Calling Enable again (e.g. to point at a new interface
// after a reconnect) replaces the interface-accept rule by recreating the
// chain, since the table has no other state to preserve.
func (c *NftablesController) Enable(iface string) error {
	if err := validateIface(iface); err != nil {
		return err
	}

	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("nftfw: enable: %w", err)
	}

	table := conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyINet,
		Name:   c.cfg.TableName,
	})

	chain := conn.AddChain(&nftables.Chain{
		Name:     c.cfg.ChainName,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookOutput,
		Priority: nftables.ChainPriorityFilter,
		Policy:   chainPolicyPtr(nftables.ChainPolicyDrop),
	})

	conn.FlushChain(chain)

	conn.AddRule(&nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: acceptInterfaceExprs("lo"),
	})
	conn.AddRule(&nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: acceptInterfaceExprs(iface),
	})

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("nftfw: enable: %w", err)
	}

	c.logger.Info("kill switch enabled",
		"component", "nftfw",
		"interface", iface,
	)
	return nil
}

// Disable removes the kill-switch table entirely. Idempotent: if the table
// does not exist, this returns nil.
func (c *NftablesController) Disable() error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("nftfw: disable: %w", err)
	}

	table, err := c.findTable(conn)
	if err != nil {
		return fmt.Errorf("nftfw: disable: %w", err)
	}
	if table == nil {
		c.logger.Debug("kill switch already disabled, nothing to remove",
			"component", "nftfw",
		)
		return nil
	}

	conn.DelTable(table)
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("nftfw: disable: %w", err)
	}

	c.logger.Info("kill switch disabled",
		"component", "nftfw",
	)
	return nil
}

// IsEnabled inspects the live nftables tables — never a cached flag — and
// reports whether the kill-switch table is present.
func (c *NftablesController) IsEnabled() (bool, error) {
	conn, err := nftables.New()
	if err != nil {
		return false, fmt.Errorf("nftfw: is enabled: %w", err)
	}

	table, err := c.findTable(conn)
	if err != nil {
		return false, fmt.Errorf("nftfw: is enabled: %w", err)
	}
	return table != nil, nil
}

func (c *NftablesController) findTable(conn *nftables.Conn) (*nftables.Table, error) {
	tables, err := conn.ListTablesOfFamily(nftables.TableFamilyINet)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if t.Name == c.cfg.TableName {
			return t, nil
		}
	}
	return nil, nil
}

// acceptInterfaceExprs builds match expressions that accept all egress
// traffic leaving the named output interface.
func acceptInterfaceExprs(iface string) []expr.Any {
	return []expr.Any{
		&expr.Meta{Key: expr.MetaKeyOIFNAME, Register: 1},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     ifaceNameBytes(iface),
		},
		&expr.Counter{},
		&expr.Verdict{Kind: expr.VerdictAccept},
	}
}

// ifaceNameBytes returns the interface name as a null-terminated byte slice
// for nftables expression matching.
func ifaceNameBytes(name string) []byte {
	buf := make([]byte, 16)
	copy(buf, name)
	return buf[:len(name)+1]
}

func chainPolicyPtr(p nftables.ChainPolicy) *nftables.ChainPolicy {
	return &p
}
