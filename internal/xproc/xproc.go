// Package xproc runs external tools as blocking subprocess invocations with a
// typed argument list, captured output, and a hard wall-clock timeout. On
// timeout or caller cancellation the process is killed and the error carries
// a tail of stderr for diagnostics.
package xproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const stderrTailBytes = 4096

// Cmd describes one external tool invocation.
type Cmd struct {
	Name    string
	Args    []string
	Timeout time.Duration // 0 means no timeout beyond ctx
}

// toolError signals a subprocess failure (non-zero exit or timeout).
type toolError struct {
	name    string
	err     error
	stderr  string
	timeout bool
}

func (e toolError) Error() string {
	if e.timeout {
		return fmt.Sprintf("%s timed out: %v", e.name, e.err)
	}
	if e.stderr != "" {
		return fmt.Sprintf("%s failed: %v; stderr tail: %s", e.name, e.err, e.stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.name, e.err)
}

func (e toolError) Unwrap() error { return e.err }

// IsToolFailure reports whether err came from a failed subprocess invocation.
func IsToolFailure(err error) bool {
	var te toolError
	return errors.As(err, &te)
}

// IsTimeout reports whether err came from a subprocess exceeding its deadline.
func IsTimeout(err error) bool {
	var te toolError
	return errors.As(err, &te) && te.timeout
}

// Run executes the command and returns its stdout. The subprocess inherits
// cancellation from ctx and from the per-command timeout, whichever fires
// first.
func Run(ctx context.Context, c Cmd) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctx.Err() != nil {
		return nil, toolError{name: c.Name, err: ctx.Err(), timeout: true}
	}
	return nil, toolError{name: c.Name, err: err, stderr: tail(stderr.Bytes())}
}

// LookPath reports whether a tool is available on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func tail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return string(bytes.TrimSpace(b))
}
