// Command vpnwatch-helper is the privileged half of vpnwatch: a narrowly
// scoped binary invoked via sudo that owns WireGuard interface lifecycle,
// nftables kill-switch rules, and the tunnel profile store under
// /etc/vpnwatch/tunnels. It dispatches on os.Args[1] the way a setuid-style
// tool does and never imports anything from the orchestrator's
// reconciliation packages.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/vpnwatch/vpnwatchd/internal/helperops"
	"github.com/vpnwatch/vpnwatchd/internal/nftfw"
	"github.com/vpnwatch/vpnwatchd/internal/wireguard"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vpnwatch-helper <verb> [args...]")
		return 2
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store := helperops.NewStore("")
	wg := wireguard.NewNetlinkController(logger)
	fw := nftfw.NewNftablesController(nftfw.Config{}, logger)
	lc := helperops.NewLifecycle(wg, fw, store, wireguard.Config{}, logger)

	return helperops.Dispatch(lc, store, args[0], args[1:], os.Stdin, os.Stdout)
}
