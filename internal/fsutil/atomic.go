// Package fsutil provides small filesystem helpers shared by the core's
// policy store and the privileged helper's tunnel-profile store: both need
// the same write-temp-then-rename guarantee so readers never observe a
// partially written config file.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReplaceFile atomically replaces the file at path with data: it writes to
// a sibling temp file in the same directory, fsyncs it, then renames it
// over path. A crash or concurrent reader never sees a half-written file,
// since rename is atomic within a filesystem.
func ReplaceFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vpnwatch-tmp-*")
	if err != nil {
		return fmt.Errorf("fsutil: replace %s: create temp: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("fsutil: replace %s: chmod temp: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("fsutil: replace %s: write temp: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsutil: replace %s: sync temp: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fsutil: replace %s: close temp: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("fsutil: replace %s: rename: %w", path, err)
	}
	return nil
}
