package sshutil

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// sftpClient opens the SFTP subsystem on first use and reuses it afterwards.
func (c *Conn) sftpClient() (*sftp.Client, error) {
	if c.client == nil {
		return nil, ErrNotAuthenticated
	}
	if c.sftp != nil {
		return c.sftp, nil
	}

	client, err := sftp.NewClient(c.client)
	if err != nil {
		return nil, fmt.Errorf("starting SFTP subsystem: %w", err)
	}
	c.sftp = client
	c.transport.log.Debug("SFTP session established with %s", c.settings.Address())
	return client, nil
}

// SendFile uploads localPath to remotePath, creating missing parent
// directories. perm, when non-nil, is applied to the remote file.
func (c *Conn) SendFile(localPath, remotePath string, perm *os.FileMode) error {
	client, err := c.sftpClient()
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := client.MkdirAll(dir); err != nil {
			return fmt.Errorf("creating remote directory %s: %w", dir, err)
		}
	}

	dst, err := client.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("opening remote %s for write: %w", remotePath, err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing remote %s: %w", remotePath, err)
	}

	if perm != nil {
		if err := client.Chmod(remotePath, *perm); err != nil {
			return fmt.Errorf("setting mode %s on %s: %w", *perm, remotePath, err)
		}
	}

	c.transport.log.Debug("sent %s -> %s (%d bytes)", localPath, remotePath, n)
	return nil
}

// ReceiveFile downloads remotePath into localPath, replacing it. A download
// that fails partway leaves no file at localPath.
func (c *Conn) ReceiveFile(remotePath, localPath string) error {
	client, err := c.sftpClient()
	if err != nil {
		return err
	}

	src, err := client.Open(remotePath)
	if err != nil {
		return fmt.Errorf("opening remote %s: %w", remotePath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return fmt.Errorf("writing %s: %w", localPath, err)
	}

	c.transport.log.Debug("received %s -> %s (%d bytes)", remotePath, localPath, n)
	return nil
}
