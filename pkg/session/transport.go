package session

import (
	"io"
	"os"
	"time"
)

// Transport is the provider of the secure channel. A Session never speaks the
// wire protocol itself; it drives a Transport through this surface.
//
// sshutil.Transport is the real implementation. The testing subpackage has an
// in-memory double.
type Transport interface {
	// Probe performs a bounded reachability check against the host's SSH port.
	Probe(address string, timeout time.Duration) error

	// Handshake opens a new, unauthenticated connection to address.
	Handshake(address string) (Conn, error)
}

// Conn is an open transport handle. It is owned by exactly one Session and is
// never used from more than one goroutine at a time.
type Conn interface {
	// AuthPassword authenticates the handle with a plain password.
	AuthPassword(user, password string) error

	// AuthPublicKey authenticates the handle with a key pair read from disk.
	// An empty passphrase means the private key is not encrypted.
	AuthPublicKey(user, publicKeyPath, privateKeyPath, passphrase string) error

	// Exec starts command and returns its result stream. The caller drains the
	// stream to EOF and closes it; Close waits for the command to finish.
	Exec(command string) (io.ReadCloser, error)

	// SendFile copies a local file to the remote host. A nil perm leaves the
	// remote mode to the server default.
	SendFile(localPath, remotePath string, perm *os.FileMode) error

	// ReceiveFile copies a remote file to the local filesystem.
	ReceiveFile(remotePath, localPath string) error

	// Close tears down the handle.
	Close() error
}
