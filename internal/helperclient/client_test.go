package helperclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFakeHelper writes a tiny shell script that stands in for
// vpnwatch-helper and returns a Config that invokes it via /bin/sh,
// bypassing sudo entirely (tests never run as a different privilege level).
func newFakeHelper(t *testing.T, script string) Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-helper.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake helper: %v", err)
	}
	return Config{
		HelperPath: path,
		SudoPath:   "/bin/sh",
		Timeout:    2 * time.Second,
	}
}

func TestCall_Success(t *testing.T) {
	cfg := newFakeHelper(t, "#!/bin/sh\necho \"got $1\"\nexit 0\n")
	c := NewClient(cfg, discardLogger())

	result, err := c.Call(context.Background(), "status")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.Stdout != "got status\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "got status\n")
	}
}

func TestCall_NonZeroExit(t *testing.T) {
	cfg := newFakeHelper(t, "#!/bin/sh\necho 'denied' >&2\nexit 1\n")
	c := NewClient(cfg, discardLogger())

	_, err := c.Call(context.Background(), "killswitch-on", "wg0")
	if err == nil {
		t.Fatal("Call: expected error for non-zero exit")
	}
	if !errors.Is(err, ErrHelperRefused) {
		t.Errorf("Call error = %v, want wrapping ErrHelperRefused", err)
	}
}

func TestCall_Timeout(t *testing.T) {
	cfg := newFakeHelper(t, "#!/bin/sh\nsleep 5\n")
	cfg.Timeout = 100 * time.Millisecond
	c := NewClient(cfg, discardLogger())

	_, err := c.Call(context.Background(), "status")
	if err == nil {
		t.Fatal("Call: expected timeout error")
	}
	if !errors.Is(err, ErrHelperTimeout) {
		t.Errorf("Call error = %v, want wrapping ErrHelperTimeout", err)
	}
}

func TestCallWithStdin_PipesBody(t *testing.T) {
	cfg := newFakeHelper(t, "#!/bin/sh\ncat\nexit 0\n")
	c := NewClient(cfg, discardLogger())

	result, err := c.CallWithStdin(context.Background(), []byte("[Interface]\nPrivateKey = x\n"), "config-write", "home")
	if err != nil {
		t.Fatalf("CallWithStdin: %v", err)
	}
	if result.Stdout != "[Interface]\nPrivateKey = x\n" {
		t.Errorf("Stdout = %q, want body echoed back", result.Stdout)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.HelperPath != DefaultHelperPath {
		t.Errorf("HelperPath = %q, want %q", c.HelperPath, DefaultHelperPath)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
}

func TestConfig_ValidateRejectsEmpty(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted zero-value config")
	}
}
