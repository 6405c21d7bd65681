package helperclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxOutputBytes bounds how much of the helper's stdout/stderr is retained.
// The helper's legitimate output (status text, config bodies) is small;
// anything beyond this is almost certainly a runaway process.
const maxOutputBytes = 1 << 20 // 1 MiB

// Result is the outcome of a single helper invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Client invokes vpnwatch-helper as a subprocess and reports its result.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a new Client. Config defaults are applied automatically.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.ApplyDefaults()
	return &Client{cfg: cfg, logger: logger}
}

// Call invokes the helper with the given verb and arguments, with no stdin.
func (c *Client) Call(ctx context.Context, verb string, args ...string) (Result, error) {
	return c.CallWithStdin(ctx, nil, verb, args...)
}

// CallWithStdin invokes the helper with the given verb and arguments,
// piping body to the helper's stdin (closed after writing, or immediately
// if body is nil).
func (c *Client) CallWithStdin(ctx context.Context, body []byte, verb string, args ...string) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	fullArgs := append([]string{c.cfg.HelperPath, verb}, args...)
	cmd := exec.CommandContext(callCtx, c.cfg.SudoPath, fullArgs...)
	cmd.WaitDelay = 2 * time.Second

	if body != nil {
		cmd.Stdin = bytes.NewReader(body)
	}

	var stdout, stderr limitedBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("invoking helper",
		"component", "helperclient",
		"verb", verb,
		"args", strings.Join(args, " "),
	)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if callCtx.Err() != nil {
			c.logger.Warn("helper call timed out",
				"component", "helperclient",
				"verb", verb,
				"duration", duration,
			)
			return result, fmt.Errorf("helperclient: call %s: %w", verb, ErrHelperTimeout)
		}
		c.logger.Warn("helper call failed",
			"component", "helperclient",
			"verb", verb,
			"exit_code", result.ExitCode,
			"stderr", result.Stderr,
			"duration", duration,
		)
		return result, fmt.Errorf("helperclient: call %s: %s: %w", verb, strings.TrimSpace(result.Stderr), ErrHelperRefused)
	}

	c.logger.Debug("helper call completed",
		"component", "helperclient",
		"verb", verb,
		"duration", duration,
	)
	return result, nil
}

// limitedBuffer is an io.Writer that discards writes beyond maxOutputBytes,
// protecting the caller from an unbounded or misbehaving subprocess.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (w *limitedBuffer) Write(p []byte) (int, error) {
	remaining := maxOutputBytes - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (w *limitedBuffer) String() string {
	return w.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
