package sshutil

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/rileyhilliard/frampt/internal/logger"
)

func dialTestServer(t *testing.T, srv *testServer, opts ...TransportOption) *Conn {
	t.Helper()

	conn, err := insecureTransport(opts...).Handshake(srv.addr)
	require.NoError(t, err)
	c, ok := conn.(*Conn)
	require.True(t, ok)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readAll(t *testing.T, stream io.ReadCloser) string {
	t.Helper()
	out, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	return string(out)
}

func TestHandshake_ReadsServerVersion(t *testing.T) {
	srv := startTestServer(t)
	c := dialTestServer(t, srv)

	assert.Contains(t, c.ServerVersion(), "SSH-2.0-")
}

func TestHandshake_NothingListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = insecureTransport().Handshake(addr)
	require.Error(t, err)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, ProbeFailRefused, probeErr.Reason)
}

func TestHandshake_NotSSH(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
	}()

	_, err = insecureTransport(WithDialTimeout(2*time.Second)).Handshake(ln.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading server identification")
}

func TestConn_AuthPassword(t *testing.T) {
	srv := startTestServer(t)

	t.Run("accepted", func(t *testing.T) {
		c := dialTestServer(t, srv)
		require.NoError(t, c.AuthPassword(srv.user, srv.password))
		assert.ErrorIs(t, c.AuthPassword(srv.user, srv.password), ErrAlreadyAuthenticated)
	})

	t.Run("rejected connection is spent", func(t *testing.T) {
		c := dialTestServer(t, srv)
		require.Error(t, c.AuthPassword(srv.user, "wrong"))
		assert.ErrorIs(t, c.AuthPassword(srv.user, srv.password), ErrHandshakeSpent)
	})

	t.Run("after close", func(t *testing.T) {
		c := dialTestServer(t, srv)
		require.NoError(t, c.Close())
		assert.ErrorIs(t, c.AuthPassword(srv.user, srv.password), net.ErrClosed)
	})
}

func TestConn_AuthPublicKey(t *testing.T) {
	srv := startTestServer(t)
	dir := t.TempDir()
	pub, priv, key := keyPair(t, dir, "id_ed25519", "")
	srv.authorize(key)

	t.Run("authorized key", func(t *testing.T) {
		c := dialTestServer(t, srv)
		require.NoError(t, c.AuthPublicKey(srv.user, pub, priv, ""))
	})

	t.Run("unauthorized key", func(t *testing.T) {
		otherPub, otherPriv, _ := keyPair(t, dir, "id_other", "")
		c := dialTestServer(t, srv)
		assert.Error(t, c.AuthPublicKey(srv.user, otherPub, otherPriv, ""))
	})

	t.Run("mismatched pair is refused before the handshake", func(t *testing.T) {
		otherPub, _, _ := keyPair(t, dir, "id_third", "")
		c := dialTestServer(t, srv)

		err := c.AuthPublicKey(srv.user, otherPub, priv, "")
		var mismatch *KeyMismatchError
		require.ErrorAs(t, err, &mismatch)

		// The stream was never used, so a correct key still works.
		require.NoError(t, c.AuthPublicKey(srv.user, pub, priv, ""))
	})

	t.Run("no key at all", func(t *testing.T) {
		c := dialTestServer(t, srv)
		err := c.AuthPublicKey(srv.user, "", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no private key")
	})
}

func TestConn_Exec(t *testing.T) {
	srv := startTestServer(t)
	srv.setCommand("echo test", fakeCommand{stdout: "test\n"})
	srv.setCommand("mixed", fakeCommand{stdout: "out\n", stderr: "err\n"})
	srv.setCommand("false", fakeCommand{status: 1})

	c := dialTestServer(t, srv)

	_, err := c.Exec("echo test")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, c.AuthPassword(srv.user, srv.password))

	stream, err := c.Exec("echo test")
	require.NoError(t, err)
	assert.Equal(t, "test\n", readAll(t, stream))

	stream, err = c.Exec("mixed")
	require.NoError(t, err)
	out := readAll(t, stream)
	assert.Contains(t, out, "out\n")
	assert.Contains(t, out, "err\n")

	stream, err = c.Exec("false")
	require.NoError(t, err, "non-zero exit is not an error")
	assert.Empty(t, readAll(t, stream))

	stream, err = c.Exec("ls -al")
	require.NoError(t, err)
	assert.Contains(t, readAll(t, stream), "not found")

	assert.Equal(t, []string{"echo test", "mixed", "false", "ls -al"}, srv.executed())
}

func TestConn_ExecCloseWithoutReading(t *testing.T) {
	srv := startTestServer(t)
	srv.setCommand("yes", fakeCommand{stdout: "y\ny\ny\n"})

	c := dialTestServer(t, srv)
	require.NoError(t, c.AuthPassword(srv.user, srv.password))

	stream, err := c.Exec("yes")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- stream.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("closing an unread stream blocked")
	}
}

func TestConn_FileTransfer(t *testing.T) {
	srv := startTestServer(t)
	c := dialTestServer(t, srv)

	local := filepath.Join(t.TempDir(), "bonfire.txt")
	require.NoError(t, os.WriteFile(local, []byte("kindled\n"), 0o644))

	require.ErrorIs(t, c.SendFile(local, "/tmp/x", nil), ErrNotAuthenticated)
	require.ErrorIs(t, c.ReceiveFile("/tmp/x", local), ErrNotAuthenticated)

	require.NoError(t, c.AuthPassword(srv.user, srv.password))

	remoteDir := t.TempDir()
	remote := filepath.ToSlash(filepath.Join(remoteDir, "nested", "bonfire.txt"))
	mode := os.FileMode(0o600)

	require.NoError(t, c.SendFile(local, remote, &mode))

	info, err := os.Stat(remote)
	require.NoError(t, err)
	assert.Equal(t, mode, info.Mode().Perm())

	back := filepath.Join(t.TempDir(), "back.txt")
	require.NoError(t, c.ReceiveFile(remote, back))
	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "kindled\n", string(got))

	err = c.ReceiveFile(filepath.ToSlash(filepath.Join(remoteDir, "missing")), back)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = c.SendFile(filepath.Join(t.TempDir(), "missing"), remote, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConn_ReceiveFileFailureRemovesPartialFile(t *testing.T) {
	srv := startTestServer(t)
	c := dialTestServer(t, srv)
	require.NoError(t, c.AuthPassword(srv.user, srv.password))

	// A remote directory opens but cannot be read as a file.
	remote := filepath.ToSlash(t.TempDir())
	local := filepath.Join(t.TempDir(), "ashen.txt")
	require.NoError(t, os.WriteFile(local, []byte("stale"), 0o644))

	err := c.ReceiveFile(remote, local)
	require.Error(t, err)
	assert.NoFileExists(t, local)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	srv := startTestServer(t)
	c := dialTestServer(t, srv)
	require.NoError(t, c.AuthPassword(srv.user, srv.password))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Exec("echo test")
	assert.Error(t, err)
}

func TestConn_StrictHostKeyChecking(t *testing.T) {
	srv := startTestServer(t)

	tests := []struct {
		name      string
		knownHost func(t *testing.T, path string)
		check     func(t *testing.T, err error)
	}{
		{
			name: "known host",
			knownHost: func(t *testing.T, path string) {
				line := knownhosts.Line([]string{srv.addr}, srv.hostKey.PublicKey())
				require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o600))
			},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "unknown host",
			knownHost: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, nil, 0o600))
			},
			check: func(t *testing.T, err error) {
				var unknown *UnknownHostError
				assert.ErrorAs(t, err, &unknown)
			},
		},
		{
			name: "missing known_hosts is created",
			knownHost: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				require.True(t, os.IsNotExist(err))
			},
			check: func(t *testing.T, err error) {
				var unknown *UnknownHostError
				assert.ErrorAs(t, err, &unknown)
				assert.FileExists(t, unknown.KnownHosts)
			},
		},
		{
			name: "changed host key",
			knownHost: func(t *testing.T, path string) {
				_, _, other := keyPair(t, t.TempDir(), "impostor", "")
				line := knownhosts.Line([]string{srv.addr}, other)
				require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o600))
			},
			check: func(t *testing.T, err error) {
				var mismatch *HostKeyMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Contains(t, mismatch.Suggestion(), "ssh-keygen -R 127.0.0.1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "known_hosts")
			tt.knownHost(t, path)

			transport := NewTransport(
				WithSSHConfig(""),
				WithKnownHosts(path),
				WithLogger(logger.Noop()),
			)
			conn, err := transport.Handshake(srv.addr)
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })

			tt.check(t, conn.AuthPassword(srv.user, srv.password))
		})
	}
}
