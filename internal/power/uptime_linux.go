//go:build linux

package power

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// readProcUptime reads the host uptime in whole seconds from /proc/uptime.
// No subprocess fallback: /proc/uptime is guaranteed present on any Linux
// host this daemon targets.
func readProcUptime() (uint64, error) {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, fmt.Errorf("power: read /proc/uptime: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("power: parse /proc/uptime: empty")
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("power: parse /proc/uptime: %w", err)
	}
	return uint64(seconds), nil
}
