package tunnelctl

import "errors"

// ErrInvalidName indicates a tunnel name failed the filename-safe
// sanitisation check performed before it is handed to the helper.
var ErrInvalidName = errors.New("tunnelctl: invalid tunnel name")

// ErrInvalidBody indicates a tunnel config body lacks the minimal
// [Interface]/[Peer] section presence this layer requires before writing.
var ErrInvalidBody = errors.New("tunnelctl: config body missing [Interface] or [Peer] section")

// ErrParseFailure indicates the helper's status output could not be
// parsed. Callers treat this as "no information" and fall back to the
// conservative assumption (handshake stale, no traffic, routing unknown)
// rather than propagating a hard failure.
var ErrParseFailure = errors.New("tunnelctl: parse failure")
