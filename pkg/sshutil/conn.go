package sshutil

import (
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/rileyhilliard/frampt/pkg/session"
)

var (
	// ErrNotAuthenticated is returned by operations that need an authenticated connection.
	ErrNotAuthenticated = stderrors.New("connection is not authenticated")
	// ErrAlreadyAuthenticated is returned when authenticating a connection twice.
	ErrAlreadyAuthenticated = stderrors.New("connection is already authenticated")
	// ErrHandshakeSpent is returned when authenticating after a failed attempt;
	// the stream cannot be reused and a new handshake is needed.
	ErrHandshakeSpent = stderrors.New("a previous authentication attempt failed on this connection; reconnect to retry")
)

// Conn is one SSH connection. It starts unauthenticated after the transport
// handshake and becomes usable for commands once an Auth method succeeds.
type Conn struct {
	transport     *Transport
	settings      Settings
	raw           *bufferedConn
	serverVersion string

	client *ssh.Client
	sftp   *sftp.Client
	spent  bool
	closed bool
}

var _ session.Conn = (*Conn)(nil)

// ServerVersion returns the identification string the server sent.
func (c *Conn) ServerVersion() string {
	return c.serverVersion
}

// AuthPassword authenticates with a password. Servers that only offer
// keyboard-interactive get the password as the answer to each hidden prompt.
func (c *Conn) AuthPassword(user, password string) error {
	return c.authenticate(user,
		ssh.Password(password),
		ssh.KeyboardInteractive(func(_, _ string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				if !echos[i] {
					answers[i] = password
				}
			}
			return answers, nil
		}),
	)
}

// AuthPublicKey authenticates with the key pair on disk. An empty
// privateKeyPath falls back to the IdentityFile from ssh config.
func (c *Conn) AuthPublicKey(user, publicKeyPath, privateKeyPath, passphrase string) error {
	if privateKeyPath == "" {
		privateKeyPath = c.settings.IdentityFile
	}
	if privateKeyPath == "" {
		return fmt.Errorf("no private key given and no IdentityFile configured for %s", c.settings.Hostname)
	}

	signer, err := LoadKeyPair(publicKeyPath, privateKeyPath, passphrase)
	if err != nil {
		return err
	}
	return c.authenticate(user, ssh.PublicKeys(signer))
}

func (c *Conn) authenticate(user string, methods ...ssh.AuthMethod) error {
	switch {
	case c.closed:
		return net.ErrClosed
	case c.client != nil:
		return ErrAlreadyAuthenticated
	case c.spent:
		return ErrHandshakeSpent
	}

	if user == "" {
		user = c.settings.User
	}

	callback, err := hostKeyCallback(c.transport.strict, c.transport.knownHostsPath)
	if err != nil {
		return err
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: callback,
		Timeout:         c.transport.dialTimeout,
	}

	address := c.settings.Address()
	_ = c.raw.SetDeadline(time.Now().Add(c.transport.dialTimeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(c.raw, address, config)
	_ = c.raw.SetDeadline(time.Time{})
	if err != nil {
		c.spent = true
		return err
	}

	c.client = ssh.NewClient(sshConn, chans, reqs)
	c.transport.log.Debug("authenticated to %s as %s", address, user)
	return nil
}

// Exec starts command in a new SSH session. Stdout and stderr are merged into
// the returned stream. A non-zero exit status is not an error; the output is
// the result.
func (c *Conn) Exec(command string) (io.ReadCloser, error) {
	if c.client == nil {
		return nil, ErrNotAuthenticated
	}

	sess, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	pr, pw := io.Pipe()
	sess.Stdout = pw
	sess.Stderr = pw

	if err := sess.Start(command); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("starting command: %w", err)
	}

	s := &execStream{pr: pr, sess: sess, done: make(chan struct{}), exitCode: -1}
	go func() {
		defer close(s.done)
		err := sess.Wait()
		var exitErr *ssh.ExitError
		switch {
		case err == nil:
			s.exitCode = 0
		case stderrors.As(err, &exitErr):
			s.exitCode = exitErr.ExitStatus()
			err = nil
		}
		pw.CloseWithError(err)
		if s.exitCode > 0 {
			c.transport.log.Debug("%q exited with status %d", command, s.exitCode)
		}
	}()

	return s, nil
}

// execStream is the result stream of a running command.
type execStream struct {
	pr       *io.PipeReader
	sess     *ssh.Session
	done     chan struct{}
	exitCode int
}

func (s *execStream) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Close releases the command's session. If the output was not fully read the
// remote command is abandoned.
func (s *execStream) Close() error {
	_ = s.pr.Close()
	err := s.sess.Close()
	<-s.done
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Close tears down the SFTP client, the SSH client and the TCP connection.
// Closing an already closed connection is not an error.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}

	var errs []error
	if c.sftp != nil {
		errs = append(errs, c.sftp.Close())
		c.sftp = nil
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	} else {
		errs = append(errs, c.raw.Close())
	}

	if err := ignoreClosed(stderrors.Join(errs...)); err != nil {
		return err
	}
	c.closed = true
	return nil
}

// ignoreClosed drops errors that only say the peer already hung up.
func ignoreClosed(err error) error {
	if err == nil {
		return nil
	}
	var remaining []error
	for _, e := range unwrapJoined(err) {
		if e == nil || stderrors.Is(e, net.ErrClosed) || stderrors.Is(e, io.EOF) ||
			strings.Contains(e.Error(), "use of closed network connection") {
			continue
		}
		remaining = append(remaining, e)
	}
	return stderrors.Join(remaining...)
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
