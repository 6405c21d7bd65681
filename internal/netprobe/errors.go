package netprobe

import "errors"

// ErrNoSuchKnownNetwork is returned by ForgetNetwork when neither the
// wireless daemon nor the connection manager recognises the network.
var ErrNoSuchKnownNetwork = errors.New("netprobe: no such known network")
