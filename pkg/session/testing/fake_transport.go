// Package testing provides an in-memory session.Transport for tests that need
// a Session without a network.
package testing

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rileyhilliard/frampt/pkg/session"
)

// CommandResponse defines the canned result of a command.
type CommandResponse struct {
	// Output is returned through the command's stream.
	Output string
	// ExecError makes Exec itself fail.
	ExecError error
	// ReadError is returned by the stream after Output has been read.
	ReadError error
}

// FakeTransport simulates a transport provider. Failures are injected with
// the Set* methods; every call is recorded and available through Calls.
type FakeTransport struct {
	mu sync.Mutex

	probeErr     error
	handshakeErr error
	passwordErr  error
	publicKeyErr error
	closeErr     error
	sendErr      error
	receiveErr   error
	requireAuth  bool

	commands map[string]CommandResponse
	files    map[string][]byte
	calls    []string
	conns    []*FakeConn
}

// NewFakeTransport returns a transport where every operation succeeds.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		commands: make(map[string]CommandResponse),
		files:    make(map[string][]byte),
	}
}

func (f *FakeTransport) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Probe records the call and returns the configured probe error.
func (f *FakeTransport) Probe(address string, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("probe %s %s", address, timeout)
	return f.probeErr
}

// Handshake returns a new FakeConn unless a handshake error is configured.
func (f *FakeTransport) Handshake(address string) (session.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("handshake %s", address)
	if f.handshakeErr != nil {
		return nil, f.handshakeErr
	}
	c := &FakeConn{parent: f, id: len(f.conns) + 1}
	f.conns = append(f.conns, c)
	return c, nil
}

// SetProbeError makes the host unreachable when err is non-nil.
func (f *FakeTransport) SetProbeError(err error) { f.set(func() { f.probeErr = err }) }

// SetHandshakeError makes Handshake fail.
func (f *FakeTransport) SetHandshakeError(err error) { f.set(func() { f.handshakeErr = err }) }

// SetPasswordError makes password authentication fail.
func (f *FakeTransport) SetPasswordError(err error) { f.set(func() { f.passwordErr = err }) }

// SetPublicKeyError makes public key authentication fail.
func (f *FakeTransport) SetPublicKeyError(err error) { f.set(func() { f.publicKeyErr = err }) }

// SetCloseError makes Close fail on every connection.
func (f *FakeTransport) SetCloseError(err error) { f.set(func() { f.closeErr = err }) }

// SetSendError makes SendFile fail.
func (f *FakeTransport) SetSendError(err error) { f.set(func() { f.sendErr = err }) }

// SetReceiveError makes ReceiveFile fail.
func (f *FakeTransport) SetReceiveError(err error) { f.set(func() { f.receiveErr = err }) }

// SetRequireAuth makes Exec and file transfers fail on unauthenticated connections,
// the way a real SSH server would.
func (f *FakeTransport) SetRequireAuth(v bool) { f.set(func() { f.requireAuth = v }) }

// SetCommandResponse registers the result of an exact command string.
// Unregistered commands succeed with empty output.
func (f *FakeTransport) SetCommandResponse(command string, resp CommandResponse) {
	f.set(func() { f.commands[command] = resp })
}

// SetRemoteFile places a file on the simulated server.
func (f *FakeTransport) SetRemoteFile(path, content string) {
	f.set(func() { f.files[path] = []byte(content) })
}

// RemoteFile returns a file from the simulated server.
func (f *FakeTransport) RemoteFile(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	return string(data), ok
}

// RemotePaths lists the simulated server's files, sorted.
func (f *FakeTransport) RemotePaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]string, 0, len(f.files))
	for p := range f.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Calls returns every recorded call in order.
func (f *FakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Conns returns every connection created by Handshake, oldest first.
func (f *FakeTransport) Conns() []*FakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeConn, len(f.conns))
	copy(out, f.conns)
	return out
}

// OpenConns counts connections that have not been closed.
func (f *FakeTransport) OpenConns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.conns {
		if !c.closed {
			n++
		}
	}
	return n
}

func (f *FakeTransport) set(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

// FakeConn is a connection handed out by FakeTransport.
type FakeConn struct {
	parent        *FakeTransport
	id            int
	authenticated bool
	user          string
	closed        bool
	closeAttempts int
}

var errClosed = errors.New("connection closed")

// AuthPassword authenticates unless a password error is configured.
func (c *FakeConn) AuthPassword(user, password string) error {
	f := c.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("auth-password %s", user)
	if c.closed {
		return errClosed
	}
	if f.passwordErr != nil {
		return f.passwordErr
	}
	c.authenticated = true
	c.user = user
	return nil
}

// AuthPublicKey authenticates unless a public key error is configured.
func (c *FakeConn) AuthPublicKey(user, publicKeyPath, privateKeyPath, passphrase string) error {
	f := c.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("auth-publickey %s %s %s", user, publicKeyPath, privateKeyPath)
	if c.closed {
		return errClosed
	}
	if f.publicKeyErr != nil {
		return f.publicKeyErr
	}
	c.authenticated = true
	c.user = user
	return nil
}

// Exec returns a stream over the registered response for command.
func (c *FakeConn) Exec(command string) (io.ReadCloser, error) {
	f := c.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("exec %s", command)
	if err := c.usable(); err != nil {
		return nil, err
	}
	resp := f.commands[command]
	if resp.ExecError != nil {
		return nil, resp.ExecError
	}
	return &stream{r: bytes.NewReader([]byte(resp.Output)), readErr: resp.ReadError}, nil
}

// SendFile copies a local file into the simulated server.
func (c *FakeConn) SendFile(localPath, remotePath string, perm *os.FileMode) error {
	f := c.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("send %s %s", localPath, remotePath)
	if err := c.usable(); err != nil {
		return err
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.files[remotePath] = data
	return nil
}

// ReceiveFile writes a simulated server file to localPath.
func (c *FakeConn) ReceiveFile(remotePath, localPath string) error {
	f := c.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("receive %s %s", remotePath, localPath)
	if err := c.usable(); err != nil {
		return err
	}
	if f.receiveErr != nil {
		return f.receiveErr
	}
	data, ok := f.files[remotePath]
	if !ok {
		return fmt.Errorf("%s: %w", remotePath, os.ErrNotExist)
	}
	return os.WriteFile(localPath, data, 0o644)
}

// Close closes the connection unless a close error is configured.
func (c *FakeConn) Close() error {
	f := c.parent
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("close %d", c.id)
	c.closeAttempts++
	if f.closeErr != nil {
		return f.closeErr
	}
	c.closed = true
	return nil
}

// Closed reports whether Close succeeded on this connection.
func (c *FakeConn) Closed() bool {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	return c.closed
}

// CloseAttempts counts calls to Close, successful or not.
func (c *FakeConn) CloseAttempts() int {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	return c.closeAttempts
}

// Authenticated reports whether an auth call succeeded on this connection.
func (c *FakeConn) Authenticated() bool {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	return c.authenticated
}

// User returns the user that authenticated on this connection.
func (c *FakeConn) User() string {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	return c.user
}

func (c *FakeConn) usable() error {
	if c.closed {
		return errClosed
	}
	if c.parent.requireAuth && !c.authenticated {
		return errors.New("not authenticated")
	}
	return nil
}

type stream struct {
	r       *bytes.Reader
	readErr error
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err == io.EOF && s.readErr != nil {
		return n, s.readErr
	}
	return n, err
}

func (s *stream) Close() error { return nil }
