package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReplaceFile_CreatesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := ReplaceFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("ReplaceFile() first write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("content = %q, want %q", got, "first")
	}

	if err := ReplaceFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("ReplaceFile() second write: %v", err)
	}
	got, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}

func TestReplaceFile_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := ReplaceFile(path, []byte("data"), 0o600); err != nil {
		t.Fatalf("ReplaceFile(): %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.toml" {
		t.Errorf("dir entries = %v, want only config.toml", entries)
	}
}

func TestReplaceFile_PermissionApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret")

	if err := ReplaceFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("ReplaceFile(): %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want %o", perm, 0o600)
	}
}
