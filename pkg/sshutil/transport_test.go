package sshutil

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindVersionLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"plain", "SSH-2.0-OpenSSH_9.6\r\n", "SSH-2.0-OpenSSH_9.6", true},
		{"unix newline", "SSH-2.0-dropbear\n", "SSH-2.0-dropbear", true},
		{"after banner lines", "Welcome to Anor Londo\r\nAuthorized use only\r\nSSH-2.0-Go\r\n", "SSH-2.0-Go", true},
		{"incomplete line", "SSH-2.0-Open", "", false},
		{"no version yet", "Welcome\r\n", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := findVersionLine([]byte(tt.input))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeekServerVersion_DoesNotConsume(t *testing.T) {
	input := "banner\r\nSSH-2.0-Go\r\nkex bytes"
	r := bufio.NewReaderSize(strings.NewReader(input), 2*maxBannerBytes)

	version, err := peekServerVersion(r)
	require.NoError(t, err)
	assert.Equal(t, "SSH-2.0-Go", version)

	rest, err := r.Peek(len(input))
	require.NoError(t, err)
	assert.Equal(t, input, string(rest))
}

func TestPeekServerVersion_Errors(t *testing.T) {
	t.Run("stream ends early", func(t *testing.T) {
		r := bufio.NewReaderSize(strings.NewReader("Welcome\r\n"), 2*maxBannerBytes)
		_, err := peekServerVersion(r)
		assert.Error(t, err)
	})

	t.Run("too much pre-version text", func(t *testing.T) {
		junk := strings.Repeat("x", maxBannerBytes+10) + "\n"
		r := bufio.NewReaderSize(strings.NewReader(junk), 2*maxBannerBytes)
		_, err := peekServerVersion(r)
		assert.True(t, errors.Is(err, ErrNotSSH), "got %v", err)
	})
}

func TestNewTransport_Options(t *testing.T) {
	tr := NewTransport()
	assert.Equal(t, DefaultDialTimeout, tr.dialTimeout)
	assert.True(t, tr.strict)
	assert.Equal(t, DefaultKnownHostsPath(), tr.knownHostsPath)
	assert.Equal(t, DefaultSSHConfigPath(), tr.sshConfigPath)

	tr = NewTransport(
		WithDialTimeout(0),
		WithStrictHostKeyChecking(false),
		WithKnownHosts("/tmp/kh"),
		WithSSHConfig(""),
		WithLogger(nil),
	)
	assert.Equal(t, DefaultDialTimeout, tr.dialTimeout, "non-positive timeout is ignored")
	assert.False(t, tr.strict)
	assert.Equal(t, "/tmp/kh", tr.knownHostsPath)
	assert.Empty(t, tr.sshConfigPath)
	assert.NotNil(t, tr.log)
}

func TestTransport_ResolveUsesSSHConfig(t *testing.T) {
	path := writeSSHConfig(t, `
Host firelink
    HostName 10.1.1.1
    Port 2200
    User keeper
`)

	s := NewTransport(WithSSHConfig(path)).Resolve("firelink")
	assert.Equal(t, "10.1.1.1:2200", s.Address())
	assert.Equal(t, "keeper", s.User)
	assert.True(t, s.FromConfig)
}
