package notify

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withFakeNotifySend prepends a directory containing a fake notify-send
// script to PATH for the duration of the test.
func withFakeNotifySend(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "notify-send")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake notify-send: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestSend_DoesNotBlockOnMissingBinary(t *testing.T) {
	t.Setenv("PATH", "")
	n := New(discardLogger())
	n.Send(context.Background(), "title", "body", UrgencyNormal)
}

func TestSend_InvokesNotifySend(t *testing.T) {
	withFakeNotifySend(t, "#!/bin/sh\nexit 0\n")
	n := New(discardLogger())
	n.Info(context.Background(), "VPN connected", "work")
}

func TestCritical_SwallowsNonZeroExit(t *testing.T) {
	withFakeNotifySend(t, "#!/bin/sh\nexit 1\n")
	n := New(discardLogger())
	n.Critical(context.Background(), "Kill switch inconsistent", "manual intervention required")
}
