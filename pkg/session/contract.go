package session

import (
	"io"
	"os"
)

// Client is the capability surface of a session with one remote host.
// Code that drives a session should accept a Client so tests can substitute
// a double for *Session.
type Client interface {
	io.Closer

	AuthenticateWithPassword(username, password string) error
	AuthenticateWithPublicKey(username, publicKeyPath, privateKeyPath, passphrase string) error
	Disconnect() error

	RunCommand(command string) error
	SendFile(localPath, remotePath string, perm *os.FileMode) error
	ReceiveFile(remotePath, localPath string) error

	Server() string
	Authenticated() bool
	LastOutput() string
	SessionTranscript() string
	ClearLastOutput()
}

var _ Client = (*Session)(nil)
