// Package ssh runs introspection commands on a remote host over SSH and
// copies the helper scripts there over SFTP.
package ssh

import (
	"context"
	"time"
)

// Transport is a connection to one remote host.
type Transport interface {
	// Connect establishes the SSH connection. Calling it on a live
	// connection is a no-op.
	Connect(ctx context.Context) error

	// Disconnect closes the connection.
	Disconnect() error

	// IsConnected reports whether a connection is established.
	IsConnected() bool

	// HealthCheck runs a trivial command to verify the connection responds.
	HealthCheck(ctx context.Context) error

	// ExecuteCommand runs a command through the remote user's shell.
	// A non-zero exit status is returned in the result together with a
	// *TransportError.
	ExecuteCommand(ctx context.Context, cmd string) (ExecResult, error)

	// UploadFile copies a local file to remotePath via SFTP, creating parent
	// directories as needed.
	UploadFile(ctx context.Context, localPath, remotePath string, mode uint32) error

	// UploadDirectory recursively copies a local directory via SFTP.
	UploadDirectory(ctx context.Context, localPath, remotePath string) (FileTransferResult, error)

	// ComputeChecksum returns the SHA256 of a remote file.
	ComputeChecksum(ctx context.Context, remotePath string) (string, error)

	// GetConnectionInfo describes the current connection.
	GetConnectionInfo() ConnectionInfo
}

// ConnectionInfo contains details about an active SSH connection.
type ConnectionInfo struct {
	Host         string
	Port         int
	User         string
	ConnectedAt  time.Time
	LastActivity time.Time
	ViaProxy     bool
}

// ExecResult represents the result of a command execution.
type ExecResult struct {
	Stdout string
	Stderr string

	// ExitCode is -1 when the command did not exit normally.
	ExitCode int

	Duration time.Duration
}

// FileTransferResult summarizes a directory upload.
type FileTransferResult struct {
	Files            int
	BytesTransferred int64
	Duration         time.Duration
}

// TransportError represents an error from the transport layer.
type TransportError struct {
	// Op is the operation that failed (e.g., "connect", "execute", "upload")
	Op string

	// Err is the underlying error
	Err error

	// IsTemporary indicates if the error is temporary and can be retried
	IsTemporary bool

	// IsAuthError indicates if the error is related to authentication
	IsAuthError bool
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Temporary() bool {
	return e.IsTemporary
}
