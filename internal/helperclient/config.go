// Package helperclient invokes the privileged vpnwatch-helper subprocess
// and exposes its verb set as Go method calls with a bounded timeout.
package helperclient

import (
	"errors"
	"time"
)

// DefaultHelperPath is used when no override is configured.
const DefaultHelperPath = "/usr/lib/vpnwatch/vpnwatch-helper"

// DefaultTimeout bounds every helper invocation.
const DefaultTimeout = 5 * time.Second

// Config holds the configuration for the privileged-op client.
type Config struct {
	// HelperPath is the absolute path to the vpnwatch-helper binary.
	HelperPath string
	// SudoPath is the path to the sudo binary used to elevate the helper.
	SudoPath string
	// Timeout bounds every Call/CallWithStdin invocation.
	Timeout time.Duration
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.HelperPath == "" {
		c.HelperPath = DefaultHelperPath
	}
	if c.SudoPath == "" {
		c.SudoPath = "sudo"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks that configuration values are acceptable.
func (c *Config) Validate() error {
	if c.HelperPath == "" {
		return errors.New("helperclient: config: HelperPath must not be empty")
	}
	if c.SudoPath == "" {
		return errors.New("helperclient: config: SudoPath must not be empty")
	}
	if c.Timeout <= 0 {
		return errors.New("helperclient: config: Timeout must be positive")
	}
	return nil
}
