package helperops

import (
	"fmt"
	"io"
)

// Dispatch executes verb with the given arguments, reading a request body
// from stdin only for config-write, and writes verb output to stdout.
// The returned exit code mirrors a Unix convention: 0 success, 1 refusal,
// 2 usage error.
func Dispatch(lc *Lifecycle, store *Store, verb string, args []string, stdin io.Reader, stdout io.Writer) int {
	switch verb {
	case "config-list":
		names, err := store.List()
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return 0

	case "config-read":
		if len(args) != 1 {
			return 2
		}
		body, err := store.Read(args[0])
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		fmt.Fprint(stdout, body)
		return 0

	case "config-write":
		if len(args) != 1 {
			return 2
		}
		body, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		if err := store.Write(args[0], string(body)); err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		return 0

	case "config-delete":
		if len(args) != 1 {
			return 2
		}
		if err := store.Delete(args[0]); err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		return 0

	case "status":
		out, err := lc.Status()
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		fmt.Fprint(stdout, out)
		return 0

	case "connect":
		if len(args) != 1 {
			return 2
		}
		if err := lc.Connect(args[0]); err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		return 0

	case "disconnect":
		if err := lc.Disconnect(); err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		return 0

	case "killswitch-on":
		if len(args) != 1 {
			return 2
		}
		if err := lc.KillSwitchOn(args[0]); err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		return 0

	case "killswitch-off":
		if err := lc.KillSwitchOff(); err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		return 0

	case "killswitch-status":
		out, err := lc.KillSwitchStatus()
		if err != nil {
			fmt.Fprintln(stdout, err)
			return 1
		}
		fmt.Fprintln(stdout, out)
		return 0

	default:
		fmt.Fprintf(stdout, "unknown verb %q\n", verb)
		return 2
	}
}
