package executor

import (
	"context"
	"errors"
	"fmt"
)

// Executor runs a command line and returns its standard output.
// A non-zero exit status or a launch failure is reported as an error,
// preferably an *ExecError so callers can still inspect the output.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// Func adapts an ordinary function to the Executor interface.
type Func func(ctx context.Context, command string) (string, error)

// Execute calls f(ctx, command).
func (f Func) Execute(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}

// ExecError describes a failed command execution.
type ExecError struct {
	// Op is the operation that failed (e.g., "launch", "execute", "timeout").
	Op string

	// Command is the command line that was run.
	Command string

	// ExitCode is the process exit status, or -1 when the process never exited normally.
	ExitCode int

	// Stdout holds whatever the command printed before failing.
	Stdout string

	// Stderr holds the captured standard error.
	Stderr string

	// Err is the underlying error.
	Err error

	// IsTemporary indicates the failure may go away on retry (timeouts, transport hiccups).
	IsTemporary bool
}

func (e *ExecError) Error() string {
	if e.ExitCode > 0 {
		if e.Stderr != "" {
			return fmt.Sprintf("%s: command exited with code %d: %s", e.Op, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("%s: command exited with code %d", e.Op, e.ExitCode)
	}
	if e.Err == nil {
		return e.Op + ": command failed"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure may succeed on retry.
func (e *ExecError) Temporary() bool {
	return e.IsTemporary
}

// AsExecError extracts an *ExecError from err's chain.
func AsExecError(err error) (*ExecError, bool) {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}
