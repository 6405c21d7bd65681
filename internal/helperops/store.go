// Package helperops implements the privileged operations vpnwatch-helper
// dispatches on: tunnel config CRUD against the filesystem, WireGuard
// interface lifecycle, and nftables kill-switch management. It never
// imports anything from the orchestrator's reconciliation packages — the
// helper is a standalone, narrowly-scoped privileged tool.
package helperops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/vpnwatch/vpnwatchd/internal/fsutil"
)

// DefaultTunnelDir is where tunnel profile bodies are persisted, one file
// per profile named "<name>.conf".
const DefaultTunnelDir = "/etc/vpnwatch/tunnels"

// validNamePattern mirrors tunnelctl's filename-safe tunnel name pattern;
// the helper re-validates independently of its caller.
var validNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store is the filesystem-backed tunnel profile store.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. An empty dir uses DefaultTunnelDir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultTunnelDir
	}
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".conf")
}

// List returns the names of all persisted tunnel profiles, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("helperops: list tunnels: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".conf") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".conf"))
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the persisted body for name.
func (s *Store) Read(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", fmt.Errorf("helperops: read tunnel %s: %w", name, err)
	}
	return string(data), nil
}

// Write persists body as name's tunnel profile.
func (s *Store) Write(name, body string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("helperops: write tunnel %s: %w", name, err)
	}
	if err := fsutil.ReplaceFile(s.path(name), []byte(body), 0o600); err != nil {
		return fmt.Errorf("helperops: write tunnel %s: %w", name, err)
	}
	return nil
}

// Delete removes name's persisted profile. Idempotent: deleting an absent
// profile returns nil.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("helperops: delete tunnel %s: %w", name, err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || !validNamePattern.MatchString(name) {
		return fmt.Errorf("helperops: invalid tunnel name %q", name)
	}
	return nil
}
