package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"

	"github.com/openfroyo/typeintro/pkg/executor"
)

// ExecuteCommand runs a command on the remote host. Output is returned
// untrimmed. A non-zero exit is reported both in the result's ExitCode and
// as a *TransportError.
func (c *Client) ExecuteCommand(ctx context.Context, cmd string) (ExecResult, error) {
	result := ExecResult{ExitCode: -1}
	startTime := time.Now()

	if c.config.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CommandTimeout)
		defer cancel()
	}

	log.Debug().Str("host", c.config.Host).Str("command", cmd).Msg("executing remote command")

	sshClient, err := c.getClient()
	if err != nil {
		return result, err
	}

	session, err := sshClient.NewSession()
	if err != nil {
		return result, &TransportError{
			Op:          "execute",
			Err:         fmt.Errorf("failed to create session: %w", err),
			IsTemporary: true,
			IsAuthError: false,
		}
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	doneChan := make(chan error, 1)
	go func() {
		doneChan <- session.Run(cmd)
	}()

	var execErr error
	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		_ = session.Close()
		// Run returns once the channel is closed; wait for it so the
		// output buffers are no longer being written.
		<-doneChan
		execErr = ctx.Err()
	case execErr = <-doneChan:
	}

	result.Duration = time.Since(startTime)
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	log.Debug().
		Str("command", cmd).
		Int("stdout_len", len(result.Stdout)).
		Int("stderr_len", len(result.Stderr)).
		Dur("duration", result.Duration).
		Err(execErr).
		Msg("remote command completed")

	if execErr == nil {
		result.ExitCode = 0
		return result, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(execErr, &exitErr) {
		result.ExitCode = exitErr.ExitStatus()
		return result, &TransportError{
			Op:          "execute",
			Err:         fmt.Errorf("command exited with code %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr)),
			IsTemporary: false,
			IsAuthError: false,
		}
	}

	return result, &TransportError{
		Op:          "execute",
		Err:         execErr,
		IsTemporary: true,
		IsAuthError: false,
	}
}

// Executor adapts a Transport to executor.Executor so introspection commands
// run on the remote host. It connects on first use.
type Executor struct {
	transport Transport
}

var _ executor.Executor = (*Executor)(nil)

// NewExecutor wraps t.
func NewExecutor(t Transport) *Executor {
	return &Executor{transport: t}
}

// Execute runs command remotely and returns its stdout. Failures are
// *executor.ExecError values that keep the remote stdout and stderr.
func (e *Executor) Execute(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", &executor.ExecError{
			Op:       "launch",
			Command:  command,
			ExitCode: -1,
			Err:      fmt.Errorf("empty command"),
		}
	}

	if !e.transport.IsConnected() {
		if err := e.transport.Connect(ctx); err != nil {
			return "", &executor.ExecError{
				Op:          "connect",
				Command:     command,
				ExitCode:    -1,
				Err:         err,
				IsTemporary: isTemporary(err),
			}
		}
	}

	result, err := e.transport.ExecuteCommand(ctx, command)
	if err == nil {
		return result.Stdout, nil
	}

	op := "execute"
	switch {
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded):
		op = "timeout"
	case result.ExitCode < 0:
		op = "transport"
	}

	return "", &executor.ExecError{
		Op:          op,
		Command:     command,
		ExitCode:    result.ExitCode,
		Stdout:      result.Stdout,
		Stderr:      strings.TrimSpace(result.Stderr),
		Err:         err,
		IsTemporary: op != "execute" && isTemporary(err),
	}
}

func isTemporary(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.IsTemporary
}
