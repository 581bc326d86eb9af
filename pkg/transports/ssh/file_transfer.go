package ssh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"

	"github.com/openfroyo/typeintro/pkg/shell"
)

// newSFTPClient opens an SFTP session on the current connection.
func (c *Client) newSFTPClient() (*sftp.Client, error) {
	sshClient, err := c.getClient()
	if err != nil {
		return nil, err
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, &TransportError{
			Op:          "sftp-init",
			Err:         fmt.Errorf("failed to create SFTP client: %w", err),
			IsTemporary: true,
			IsAuthError: false,
		}
	}

	return sftpClient, nil
}

// UploadFile uploads a single file to the remote host via SFTP.
func (c *Client) UploadFile(ctx context.Context, localPath string, remotePath string, mode uint32) error {
	sftpClient, err := c.newSFTPClient()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	_, err = uploadFile(ctx, sftpClient, localPath, remotePath, mode)
	return err
}

// UploadDirectory recursively uploads localPath so that its contents end up
// under remotePath. File permissions are preserved.
func (c *Client) UploadDirectory(ctx context.Context, localPath string, remotePath string) (FileTransferResult, error) {
	var result FileTransferResult
	startTime := time.Now()

	log.Debug().Str("local", localPath).Str("remote", remotePath).Msg("uploading directory")

	sftpClient, err := c.newSFTPClient()
	if err != nil {
		return result, err
	}
	defer sftpClient.Close()

	err = filepath.WalkDir(localPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(localPath, p)
		if err != nil {
			return err
		}
		// Remote paths are always POSIX.
		targetPath := path.Join(remotePath, filepath.ToSlash(relPath))

		if d.IsDir() {
			if err := sftpClient.MkdirAll(targetPath); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", targetPath, err)
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		n, err := uploadFile(ctx, sftpClient, p, targetPath, uint32(info.Mode().Perm()))
		if err != nil {
			return err
		}
		result.Files++
		result.BytesTransferred += n
		return nil
	})

	result.Duration = time.Since(startTime)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return result, err
		}
		return result, &TransportError{
			Op:          "upload-dir",
			Err:         err,
			IsTemporary: false,
			IsAuthError: false,
		}
	}

	log.Info().
		Str("local", localPath).
		Str("remote", remotePath).
		Int("files", result.Files).
		Int64("bytes", result.BytesTransferred).
		Dur("duration", result.Duration).
		Msg("directory uploaded")

	return result, nil
}

func uploadFile(ctx context.Context, sftpClient *sftp.Client, localPath, remotePath string, mode uint32) (int64, error) {
	log.Debug().Str("local", localPath).Str("remote", remotePath).Msg("uploading file")

	localFile, err := os.Open(localPath)
	if err != nil {
		return 0, &TransportError{
			Op:          "upload",
			Err:         fmt.Errorf("failed to open local file: %w", err),
			IsTemporary: false,
			IsAuthError: false,
		}
	}
	defer localFile.Close()

	if err := sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
		return 0, &TransportError{
			Op:          "upload",
			Err:         fmt.Errorf("failed to create remote directory: %w", err),
			IsTemporary: false,
			IsAuthError: false,
		}
	}

	remoteFile, err := sftpClient.Create(remotePath)
	if err != nil {
		return 0, &TransportError{
			Op:          "upload",
			Err:         fmt.Errorf("failed to create remote file: %w", err),
			IsTemporary: true,
			IsAuthError: false,
		}
	}
	defer remoteFile.Close()

	written, err := copyWithContext(ctx, remoteFile, localFile)
	if err != nil {
		return written, &TransportError{
			Op:          "upload",
			Err:         fmt.Errorf("failed to copy %s: %w", localPath, err),
			IsTemporary: true,
			IsAuthError: false,
		}
	}

	if mode > 0 {
		if err := sftpClient.Chmod(remotePath, os.FileMode(mode)); err != nil {
			log.Warn().Err(err).Str("remote", remotePath).Msg("failed to set file permissions")
		}
	}

	return written, nil
}

// ComputeChecksum calculates the SHA256 checksum of a remote file with
// sha256sum.
func (c *Client) ComputeChecksum(ctx context.Context, remotePath string) (string, error) {
	result, err := c.ExecuteCommand(ctx, shell.Command("sha256sum", remotePath))
	if err != nil {
		return "", &TransportError{
			Op:          "checksum",
			Err:         fmt.Errorf("failed to compute checksum: %w", err),
			IsTemporary: false,
			IsAuthError: false,
		}
	}

	// Format: "<checksum>  <filename>"
	fields := strings.Fields(result.Stdout)
	if len(fields) == 0 {
		return "", &TransportError{
			Op:          "checksum",
			Err:         fmt.Errorf("invalid checksum output: %q", result.Stdout),
			IsTemporary: false,
			IsAuthError: false,
		}
	}

	return fields[0], nil
}

// LocalChecksum calculates the SHA256 checksum of a local file.
func LocalChecksum(localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifyUpload compares the local and remote SHA256 of one file.
func VerifyUpload(ctx context.Context, t Transport, localPath, remotePath string) error {
	want, err := LocalChecksum(localPath)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", localPath, err)
	}
	got, err := t.ComputeChecksum(ctx, remotePath)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: local %s, remote %s", remotePath, want, got)
	}
	return nil
}

// copyWithContext copies src to dst, checking ctx between chunks.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
