package sshutil

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// fakeCommand is the canned result of an exec request on the test server.
type fakeCommand struct {
	stdout string
	stderr string
	status uint32
}

// testServer is an in-process SSH server with password and public key auth,
// canned exec responses and an SFTP subsystem backed by the local disk.
type testServer struct {
	addr       string
	hostKey    ssh.Signer
	user       string
	password   string
	authorized ssh.PublicKey

	mu       sync.Mutex
	commands map[string]fakeCommand
	execs    []string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	_, hostPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	hostKey, err := ssh.NewSignerFromKey(hostPriv)
	require.NoError(t, err)

	s := &testServer{
		hostKey:  hostKey,
		user:     "gwyn",
		password: "lord-of-cinder",
		commands: map[string]fakeCommand{},
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if meta.User() == s.user && string(pass) == s.password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", meta.User())
		},
		PublicKeyCallback: func(meta ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			s.mu.Lock()
			authorized := s.authorized
			s.mu.Unlock()
			if meta.User() == s.user && authorized != nil && bytes.Equal(key.Marshal(), authorized.Marshal()) {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown public key for %q", meta.User())
		},
	}
	config.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.addr = ln.Addr().String()
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			nConn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serveConn(nConn, config)
		}
	}()

	return s
}

func (s *testServer) setCommand(command string, result fakeCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[command] = result
}

func (s *testServer) authorize(key ssh.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = key
}

func (s *testServer) executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.execs...)
}

func (s *testServer) serveConn(nConn net.Conn, config *ssh.ServerConfig) {
	conn, chans, reqs, err := ssh.NewServerConn(nConn, config)
	if err != nil {
		_ = nConn.Close()
		return
	}
	defer func() { _ = conn.Close() }()
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go s.serveSession(ch, requests)
	}
}

func (s *testServer) serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()

	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			s.mu.Lock()
			s.execs = append(s.execs, payload.Command)
			result, ok := s.commands[payload.Command]
			s.mu.Unlock()
			if !ok {
				result = fakeCommand{stderr: "sh: " + payload.Command + ": not found\n", status: 127}
			}

			_, _ = io.WriteString(ch, result.stdout)
			_, _ = io.WriteString(ch.Stderr(), result.stderr)
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{result.status}))
			return

		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			server, err := sftp.NewServer(ch)
			if err != nil {
				return
			}
			_ = server.Serve()
			return

		default:
			_ = req.Reply(false, nil)
		}
	}
}

// keyPair writes an ed25519 key pair into dir and returns the public key
// path, the private key path and the public key.
func keyPair(t *testing.T, dir, name, passphrase string) (string, string, ssh.PublicKey) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, name)
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, name, []byte(passphrase))
	}
	require.NoError(t, err)

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	privPath := filepath.Join(dir, name)
	pubPath := privPath + ".pub"
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(block), 0o600))
	require.NoError(t, os.WriteFile(pubPath, ssh.MarshalAuthorizedKey(signer.PublicKey()), 0o600))

	return pubPath, privPath, signer.PublicKey()
}

// insecureTransport skips known_hosts and ssh config so tests only touch the
// test server.
func insecureTransport(opts ...TransportOption) *Transport {
	base := []TransportOption{
		WithStrictHostKeyChecking(false),
		WithSSHConfig(""),
	}
	return NewTransport(append(base, opts...)...)
}
