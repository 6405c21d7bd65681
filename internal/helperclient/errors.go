package helperclient

import "errors"

// ErrHelperTimeout indicates a privileged call exceeded its deadline.
// Never retried at the call site; the reconciliation engine may reschedule
// on its next tick.
var ErrHelperTimeout = errors.New("helperclient: call timed out")

// ErrHelperRefused indicates the helper exited non-zero. The caller should
// inspect Result.Stderr for diagnostics.
var ErrHelperRefused = errors.New("helperclient: helper refused")
