// Package session provides a reusable, stateful client for one remote host:
// connect, authenticate, run commands, transfer files, and disconnect.
//
// A Session moves through three states:
//
//	Disconnected --Connect--> Connected --Authenticate*--> Authenticated
//	      ^                       |                             |
//	      +-------Disconnect------+-------------Disconnect------+
//
// Connecting from Connected or Authenticated first disconnects, so a Session
// never holds more than one live transport handle. Every authenticate call
// reconnects before presenting credentials.
//
// Command output is captured twice: LastOutput holds the most recent command's
// output, and SessionTranscript holds every command and its output in order.
// Neither is cleared by Disconnect.
package session

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/internal/logger"
)

// DefaultProbeTimeout bounds the reachability check made before each handshake.
const DefaultProbeTimeout = 15 * time.Second

// ErrNotConnected is the cause reported when an operation needs a transport
// handle and the session has none.
var ErrNotConnected = stderrors.New("no open connection to the server")

// State is the connection state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// handle holds the transport connection apart from the Session so the
// collection cleanup can close it without keeping the Session reachable.
type handle struct {
	mu      sync.Mutex
	conn    Conn
	address string
	log     logger.Logger
}

func (h *handle) get() Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn
}

func (h *handle) set(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conn = c
}

// releaseHandle runs when a Session is garbage collected while still holding
// a connection. Failures are logged since there is no caller left to return them to.
func releaseHandle(h *handle) {
	conn := h.get()
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		h.log.Warn("session for %s discarded with an open connection that failed to close: %v", h.address, err)
		return
	}
	h.set(nil)
	h.log.Debug("closed connection to %s left open by a discarded session", h.address)
}

// Session is a stateful client for a single remote host.
//
// All methods are safe to call from multiple goroutines; operations are
// serialized, so commands never interleave on one handle.
type Session struct {
	mu sync.Mutex

	address      string
	transport    Transport
	probeTimeout time.Duration
	log          logger.Logger
	credentials  *Credentials

	h             *handle
	authenticated bool
	output        Output
}

// New creates a Session bound to address (a hostname, IP, ssh config alias,
// user@host or host:port; interpretation belongs to the transport).
// The session starts Disconnected; nothing touches the network until an
// authenticate or Connect call.
func New(address string, opts ...Option) *Session {
	s := &Session{
		address:      address,
		probeTimeout: DefaultProbeTimeout,
		log:          logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.h = &handle{address: address, log: s.log}
	runtime.AddCleanup(s, releaseHandle, s.h)
	return s
}

// Connect opens a fresh transport handle. An existing handle is disconnected
// first; if that fails, its error is returned and no new connection is made.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connect()
}

func (s *Session) connect() error {
	if s.h.get() != nil {
		s.log.Debug("reconnecting to %s: closing existing connection", s.address)
		if err := s.disconnect(); err != nil {
			return err
		}
	}

	if s.transport == nil {
		return errors.New(errors.ErrConnection,
			"Unable to connect to server",
			"No transport is configured for this session")
	}

	s.log.Debug("probing %s (timeout %s)", s.address, s.probeTimeout)
	if err := s.transport.Probe(s.address, s.probeTimeout); err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection,
			"Server is unreachable",
			fmt.Sprintf("Make sure '%s' is online and accepting SSH connections", s.address))
	}

	conn, err := s.transport.Handshake(s.address)
	if err != nil || conn == nil {
		return errors.WrapWithCode(err, errors.ErrConnection,
			"Unable to connect to server",
			fmt.Sprintf("'%s' answered but the SSH handshake did not complete", s.address))
	}

	s.h.set(conn)
	s.authenticated = false
	s.log.Debug("connected to %s", s.address)
	return nil
}

// AuthenticateWithPassword reconnects and authenticates with a plain password.
// On rejection the session stays Connected and an ErrAuth error is returned.
func (s *Session) AuthenticateWithPassword(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticate(MethodPassword, username, func(c Conn) error {
		return c.AuthPassword(username, password)
	})
}

// AuthenticateWithPublicKey reconnects and authenticates with the key pair at
// publicKeyPath/privateKeyPath. Pass an empty passphrase for unencrypted keys.
func (s *Session) AuthenticateWithPublicKey(username, publicKeyPath, privateKeyPath, passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticate(MethodPublicKey, username, func(c Conn) error {
		return c.AuthPublicKey(username, publicKeyPath, privateKeyPath, passphrase)
	})
}

// Authenticate uses the credentials bound with WithCredentials.
func (s *Session) Authenticate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credentials == nil {
		return errors.New(errors.ErrAuth,
			"No credentials are bound to this session",
			"Create the session with WithCredentials, or call AuthenticateWithPassword or AuthenticateWithPublicKey")
	}

	c := *s.credentials
	switch c.Method() {
	case MethodPassword:
		return s.authenticate(MethodPassword, c.Username, func(conn Conn) error {
			return conn.AuthPassword(c.Username, c.Password)
		})
	case MethodPublicKey:
		return s.authenticate(MethodPublicKey, c.Username, func(conn Conn) error {
			return conn.AuthPublicKey(c.Username, c.PublicKeyPath, c.PrivateKeyPath, c.Passphrase)
		})
	default:
		return errors.New(errors.ErrAuth,
			"Bound credentials have neither a password nor a private key",
			"Set Password, or PublicKeyPath and PrivateKeyPath")
	}
}

func (s *Session) authenticate(method AuthMethod, username string, auth func(Conn) error) error {
	if err := s.connect(); err != nil {
		return err
	}

	if err := auth(s.h.get()); err != nil {
		s.log.Debug("%s authentication for %s@%s rejected: %v", method, username, s.address, err)
		return errors.WrapWithCode(err, errors.ErrAuth,
			method.failureMessage(),
			method.suggestion())
	}

	s.authenticated = true
	s.log.Debug("authenticated to %s as %s (%s)", s.address, username, method)
	return nil
}

// Disconnect closes the transport handle. It is a no-op when the session is
// already Disconnected. If the close fails the handle is kept so the call can
// be retried.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnect()
}

func (s *Session) disconnect() error {
	conn := s.h.get()
	if conn == nil {
		return nil
	}

	if err := conn.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConnection,
			"Unable to disconnect from server",
			"The connection is still held by the session; retry Disconnect")
	}

	s.h.set(nil)
	s.authenticated = false
	s.log.Debug("disconnected from %s", s.address)
	return nil
}

// Close disconnects the session. It exists so a Session can be released with
// defer; disconnect failures are returned, not swallowed.
func (s *Session) Close() error {
	return s.Disconnect()
}

// RunCommand executes command and blocks until its output is fully read.
// The command is labeled in the transcript before it runs; its output then
// replaces LastOutput and is appended to the transcript.
//
// There is no authentication precheck: whether an unauthenticated handle can
// run commands is up to the transport.
func (s *Session) RunCommand(command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.output.RecordCommand(command)

	conn := s.h.get()
	if conn == nil {
		return errors.WrapWithCode(ErrNotConnected, errors.ErrCommand,
			"Unable to process command on the remote server",
			"Authenticate before running commands")
	}

	stream, err := conn.Exec(command)
	if err != nil || stream == nil {
		return errors.WrapWithCode(err, errors.ErrCommand,
			"Unable to process command on the remote server",
			"The connection may have dropped. Authenticate again and retry.")
	}

	data, err := io.ReadAll(stream)
	if closeErr := stream.Close(); closeErr != nil {
		s.log.Warn("closing output stream for %q on %s: %v", command, s.address, closeErr)
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCommand,
			"Unable to read command output",
			"The connection may have dropped while the command was running")
	}

	s.output.SetLast(string(data))
	s.log.Debug("ran %q on %s (%d bytes of output)", command, s.address, len(data))
	return nil
}

// SendFile copies localPath to remotePath on the server. perm, when non-nil,
// sets the remote file mode.
func (s *Session) SendFile(localPath, remotePath string, perm *os.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := ErrNotConnected
	if conn := s.h.get(); conn != nil {
		err = conn.SendFile(localPath, remotePath, perm)
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCommand,
			"Unable to send file to the remote server",
			fmt.Sprintf("Check '%s' exists locally and '%s' is writable on the server", localPath, remotePath))
	}

	s.log.Debug("sent %s to %s:%s", localPath, s.address, remotePath)
	return nil
}

// ReceiveFile copies remotePath on the server to localPath.
func (s *Session) ReceiveFile(remotePath, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := ErrNotConnected
	if conn := s.h.get(); conn != nil {
		err = conn.ReceiveFile(remotePath, localPath)
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCommand,
			"Unable to receive file from the remote server",
			fmt.Sprintf("Check '%s' exists on the server and '%s' is writable locally", remotePath, localPath))
	}

	s.log.Debug("received %s:%s into %s", s.address, remotePath, localPath)
	return nil
}

// Server returns the address the session is bound to.
func (s *Session) Server() string {
	return s.address
}

// Authenticated reports whether the current handle passed authentication.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.h.get() == nil:
		return StateDisconnected
	case s.authenticated:
		return StateAuthenticated
	default:
		return StateConnected
	}
}

// LastOutput returns the output of the most recent command.
func (s *Session) LastOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output.Last()
}

// SessionTranscript returns every command run on this session and its output.
func (s *Session) SessionTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output.Transcript()
}

// ClearLastOutput empties LastOutput. The transcript is kept.
func (s *Session) ClearLastOutput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output.ClearLast()
}

// Perm returns a pointer to m for use with SendFile.
func Perm(m os.FileMode) *os.FileMode {
	return &m
}
