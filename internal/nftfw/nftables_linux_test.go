//go:build linux

package nftfw

import (
	"io"
	"log/slog"
	"testing"
)

func discardLoggerNft() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ Controller = (*NftablesController)(nil)

func TestNewNftablesController(t *testing.T) {
	ctrl := NewNftablesController(Config{}, discardLoggerNft())
	if ctrl == nil {
		t.Fatal("NewNftablesController returned nil")
	}
	if ctrl.cfg.TableName != DefaultTableName {
		t.Errorf("cfg.TableName = %q, want %q", ctrl.cfg.TableName, DefaultTableName)
	}
}

func TestEnableRejectsInvalidInterface(t *testing.T) {
	ctrl := NewNftablesController(Config{}, discardLoggerNft())
	if err := ctrl.Enable(""); err == nil {
		t.Error("Enable(\"\") should reject an empty interface before touching netlink")
	}
}

func TestDisableIdempotentWhenAbsent(t *testing.T) {
	ctrl := NewNftablesController(Config{TableName: "vpnwatch-test-absent"}, discardLoggerNft())

	// Disabling a table that was never created requires only read access
	// to list tables; it must not error even without CAP_NET_ADMIN to write.
	err := ctrl.Disable()
	if err != nil {
		t.Skipf("skipping: requires netlink access: %v", err)
	}
}

func TestEnableDisableRoundTrip(t *testing.T) {
	ctrl := NewNftablesController(Config{TableName: "vpnwatch-test-roundtrip"}, discardLoggerNft())

	if err := ctrl.Enable("lo"); err != nil {
		t.Skipf("skipping: requires elevated privileges: %v", err)
	}
	defer ctrl.Disable()

	enabled, err := ctrl.IsEnabled()
	if err != nil {
		t.Fatalf("IsEnabled failed: %v", err)
	}
	if !enabled {
		t.Error("IsEnabled() = false immediately after Enable()")
	}

	if err := ctrl.Disable(); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}

	enabled, err = ctrl.IsEnabled()
	if err != nil {
		t.Fatalf("IsEnabled after Disable failed: %v", err)
	}
	if enabled {
		t.Error("IsEnabled() = true after Disable()")
	}

	// Disabling twice must be idempotent.
	if err := ctrl.Disable(); err != nil {
		t.Fatalf("second Disable failed: %v", err)
	}
}
