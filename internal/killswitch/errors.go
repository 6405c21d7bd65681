package killswitch

import "errors"

// ErrNoActiveTunnel is returned by Enable when no tunnel interface is
// currently connected to arm the kill switch against.
var ErrNoActiveTunnel = errors.New("killswitch: no active tunnel interface")

// ErrInconsistentState is returned by Disable when the helper still
// reports the kill switch enabled after the verify-and-retry cycle. This
// is a critical error: a stale kill switch silently black-holes the host,
// so callers must surface it loudly rather than treat it as routine.
var ErrInconsistentState = errors.New("killswitch: failed to disable after retry")
