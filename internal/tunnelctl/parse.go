package tunnelctl

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern extracts the first integer run in a string, used to read
// the numeric prefix of a handshake phrase like "3 minutes ago".
var numberPattern = regexp.MustCompile(`\d+`)

// transferPattern matches one side of a "transfer:" line: a decimal
// quantity, a unit, and the received/sent keyword.
var transferPattern = regexp.MustCompile(`([\d.]+)\s*([A-Za-z]+)\s+(received|sent)`)

// ParseStatusText parses the helper's "status" verb output: one block per
// device, each block a handful of "key: value" lines ("interface:",
// "endpoint:", "latest handshake:", "transfer:"). Only the first block is
// parsed — a single-user workstation runs at most one active tunnel.
func ParseStatusText(output string) (Status, error) {
	block := firstBlock(output)
	if block == nil {
		return Status{}, ErrParseFailure
	}

	var st Status
	for _, line := range block {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "interface":
			st.Interface = value
			st.Connected = value != ""
		case "endpoint":
			st.Endpoint = value
		case "latest handshake":
			st.LatestHandshake = value
		case "transfer":
			st.BytesReceived, st.BytesTransmitted = parseTransfer(value)
		}
	}

	if st.Interface == "" {
		return Status{}, ErrParseFailure
	}

	st.HandshakeStale = handshakeStale(st.LatestHandshake)
	st.HasTraffic = st.BytesReceived+st.BytesTransmitted > trafficThresholdBytes
	return st, nil
}

// firstBlock splits output into blank-line-separated blocks and returns the
// first non-empty one as a slice of trimmed, non-empty lines.
func firstBlock(output string) []string {
	for _, raw := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n\n") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return lines
		}
	}
	return nil
}

// handshakeStale implements the textual liveness heuristic: "hour"/"day"
// are always stale; "minute" defers to the numeric prefix (>=3 is stale);
// "second" alone (no "minute") is fresh; anything else is unparseable and
// treated conservatively as stale.
func handshakeStale(phrase string) bool {
	lower := strings.ToLower(phrase)
	if lower == "" {
		return true
	}
	if strings.Contains(lower, "hour") || strings.Contains(lower, "day") {
		return true
	}
	if strings.Contains(lower, "minute") {
		match := numberPattern.FindString(lower)
		if match == "" {
			return true
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			return true
		}
		return n >= 3
	}
	if strings.Contains(lower, "second") {
		return false
	}
	return true
}

// parseTransfer reads both sides of a "712 B received, 1.36 KiB sent"
// style value, accepting both IEC (KiB/MiB/GiB/TiB) and SI (KB/MB/GB/TB)
// units. Either or both sides default to zero if unparseable — a partial
// transfer line is not itself a parse failure for the whole status block.
func parseTransfer(value string) (received, transmitted uint64) {
	for _, m := range transferPattern.FindAllStringSubmatch(value, -1) {
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		mult, ok := unitMultiplier(m[2])
		if !ok {
			continue
		}
		bytes := uint64(qty * mult)
		switch m[3] {
		case "received":
			received = bytes
		case "sent":
			transmitted = bytes
		}
	}
	return received, transmitted
}

// unitMultiplier maps a transfer unit to its byte multiplier.
func unitMultiplier(unit string) (float64, bool) {
	switch unit {
	case "B":
		return 1, true
	case "KB":
		return 1000, true
	case "MB":
		return 1000 * 1000, true
	case "GB":
		return 1000 * 1000 * 1000, true
	case "TB":
		return 1000 * 1000 * 1000 * 1000, true
	case "KiB":
		return 1024, true
	case "MiB":
		return 1024 * 1024, true
	case "GiB":
		return 1024 * 1024 * 1024, true
	case "TiB":
		return 1024 * 1024 * 1024 * 1024, true
	default:
		return 0, false
	}
}
