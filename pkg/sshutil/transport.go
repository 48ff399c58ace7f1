// Package sshutil is the SSH transport provider for sessions. It resolves
// addresses through ~/.ssh/config, probes reachability, performs the handshake
// and authentication with golang.org/x/crypto/ssh, runs commands, and moves
// files over SFTP.
package sshutil

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rileyhilliard/frampt/internal/logger"
	"github.com/rileyhilliard/frampt/pkg/session"
)

// DefaultDialTimeout bounds the handshake dial and each authentication exchange.
const DefaultDialTimeout = 10 * time.Second

// maxBannerBytes caps how much pre-version text a server may send.
const maxBannerBytes = 4096

// ErrNotSSH is returned when the server does not identify itself as SSH.
var ErrNotSSH = stderrors.New("server did not send an SSH identification string")

// Transport implements session.Transport over SSH.
type Transport struct {
	dialTimeout    time.Duration
	strict         bool
	knownHostsPath string
	sshConfigPath  string
	log            logger.Logger
}

var _ session.Transport = (*Transport)(nil)

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		if d > 0 {
			t.dialTimeout = d
		}
	}
}

// WithStrictHostKeyChecking toggles known_hosts verification (on by default).
func WithStrictHostKeyChecking(strict bool) TransportOption {
	return func(t *Transport) {
		t.strict = strict
	}
}

// WithKnownHosts sets the known_hosts file used for host key verification.
func WithKnownHosts(path string) TransportOption {
	return func(t *Transport) {
		t.knownHostsPath = path
	}
}

// WithSSHConfig sets the ssh config file used to resolve addresses.
// An empty path disables ssh config lookups.
func WithSSHConfig(path string) TransportOption {
	return func(t *Transport) {
		t.sshConfigPath = path
	}
}

// WithLogger sets the transport's logger.
func WithLogger(l logger.Logger) TransportOption {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTransport creates a Transport using ~/.ssh/config and ~/.ssh/known_hosts
// with strict host key checking.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		dialTimeout:    DefaultDialTimeout,
		strict:         true,
		knownHostsPath: DefaultKnownHostsPath(),
		sshConfigPath:  DefaultSSHConfigPath(),
		log:            logger.NewEnvLogger("[ssh]"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resolve returns the connection settings for address.
func (t *Transport) Resolve(address string) Settings {
	settings := ResolveSettings(address, t.sshConfigPath)
	if settings.MatchLine > 0 && !settings.FromConfig {
		t.log.Debug("%s not found in ssh config; entries after the Match block at line %d are not read",
			address, settings.MatchLine)
	}
	return settings
}

// Probe checks the resolved host:port accepts TCP connections within timeout.
func (t *Transport) Probe(address string, timeout time.Duration) error {
	target := t.Resolve(address).Address()
	latency, err := ProbeTCP(target, timeout)
	if err != nil {
		return err
	}
	t.log.Debug("probe %s ok in %s", target, latency.Round(time.Millisecond))
	return nil
}

// Handshake dials the server and reads its SSH identification line. The
// returned Conn is not yet authenticated; the key exchange happens together
// with authentication.
func (t *Transport) Handshake(address string) (session.Conn, error) {
	settings := t.Resolve(address)
	target := settings.Address()

	raw, err := net.DialTimeout("tcp", target, t.dialTimeout)
	if err != nil {
		return nil, categorizeProbeError(target, err)
	}

	bc := &bufferedConn{Conn: raw, r: bufio.NewReaderSize(raw, 2*maxBannerBytes)}

	_ = raw.SetReadDeadline(time.Now().Add(t.dialTimeout))
	version, err := peekServerVersion(bc.r)
	_ = raw.SetReadDeadline(time.Time{})
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("reading server identification from %s: %w", target, err)
	}

	t.log.Debug("connected to %s (%s)", target, version)
	return &Conn{
		transport:     t,
		settings:      settings,
		raw:           bc,
		serverVersion: version,
	}, nil
}

// bufferedConn replays bytes peeked during the handshake to the SSH layer.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// peekServerVersion waits for the server's "SSH-" identification line without
// consuming it. Servers may send other lines first.
func peekServerVersion(r *bufio.Reader) (string, error) {
	for {
		if _, err := r.Peek(r.Buffered() + 1); err != nil {
			return "", err
		}
		buf, _ := r.Peek(r.Buffered())
		if version, ok := findVersionLine(buf); ok {
			return version, nil
		}
		if len(buf) >= maxBannerBytes {
			return "", ErrNotSSH
		}
	}
}

func findVersionLine(buf []byte) (string, bool) {
	for _, line := range strings.SplitAfter(string(buf), "\n") {
		if !strings.HasSuffix(line, "\n") {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "SSH-") {
			return line, true
		}
	}
	return "", false
}
