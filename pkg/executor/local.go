package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultShell is the shell used when Local.Shell is empty.
const DefaultShell = "/bin/sh"

// defaultWaitDelay bounds how long a killed command may keep its output pipes
// open through grandchildren.
const defaultWaitDelay = 500 * time.Millisecond

// Local runs commands on this machine through a POSIX shell.
type Local struct {
	// Shell is the shell binary; the command is passed to it with -c.
	Shell string

	// WorkDir is the working directory for the command. Empty means the current directory.
	WorkDir string

	// Env adds variables on top of the current process environment.
	Env map[string]string

	// Timeout bounds each command. Zero means no timeout beyond the caller's context.
	Timeout time.Duration
}

// NewLocal returns a Local executor with the given timeout.
func NewLocal(timeout time.Duration) *Local {
	return &Local{
		Shell:   DefaultShell,
		Timeout: timeout,
	}
}

// Execute runs command with "<shell> -c" and returns its standard output.
func (l *Local) Execute(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", &ExecError{
			Op:       "launch",
			ExitCode: -1,
			Err:      fmt.Errorf("command is required"),
		}
	}

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	shell := l.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.WaitDelay = defaultWaitDelay
	if l.WorkDir != "" {
		cmd.Dir = l.WorkDir
	}
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.environ()...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("command", command).
		Str("shell", shell).
		Msg("executing command")

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	log.Debug().
		Str("command", command).
		Int("stdout_len", stdout.Len()).
		Int("stderr_len", stderr.Len()).
		Dur("duration", duration).
		Err(err).
		Msg("command completed")

	if err == nil {
		return stdout.String(), nil
	}

	execErr := &ExecError{
		Op:       "execute",
		Command:  command,
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Op = "timeout"
		execErr.Err = ctxErr
		execErr.IsTemporary = true
		return "", execErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
		return "", execErr
	}

	execErr.Op = "launch"
	return "", execErr
}

func (l *Local) environ() []string {
	keys := make([]string, 0, len(l.Env))
	for k := range l.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, l.Env[k]))
	}
	return env
}
