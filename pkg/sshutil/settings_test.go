package sshutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSettings_Formats(t *testing.T) {
	t.Setenv("USER", "tester")

	tests := []struct {
		address  string
		hostname string
		port     string
		user     string
	}{
		{"example.com", "example.com", "22", "tester"},
		{"deploy@example.com", "example.com", "22", "deploy"},
		{"example.com:2222", "example.com", "2222", "tester"},
		{"deploy@10.0.0.5:2200", "10.0.0.5", "2200", "deploy"},
		{"[::1]:2022", "::1", "2022", "tester"},
		{"::1", "::1", "22", "tester"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			s := ResolveSettings(tt.address, "")

			assert.Equal(t, tt.hostname, s.Hostname)
			assert.Equal(t, tt.port, s.Port)
			assert.Equal(t, tt.user, s.User)
			assert.False(t, s.FromConfig)
		})
	}
}

func TestResolveSettings_FromConfig(t *testing.T) {
	path := writeSSHConfig(t, `
Host web-1
    HostName 10.0.0.11
    User deploy
    Port 2201
    IdentityFile /keys/web
`)

	s := ResolveSettings("web-1", path)

	assert.True(t, s.FromConfig)
	assert.Equal(t, "10.0.0.11", s.Hostname)
	assert.Equal(t, "2201", s.Port)
	assert.Equal(t, "deploy", s.User)
	assert.Equal(t, "/keys/web", s.IdentityFile)
	assert.Equal(t, "10.0.0.11:2201", s.Address())
}

func TestResolveSettings_ExplicitWinsOverConfig(t *testing.T) {
	path := writeSSHConfig(t, `
Host web-1
    HostName 10.0.0.11
    User deploy
    Port 2201
`)

	s := ResolveSettings("root@web-1:22", path)

	assert.Equal(t, "10.0.0.11", s.Hostname)
	assert.Equal(t, "22", s.Port)
	assert.Equal(t, "root", s.User)
}

func TestResolveSettings_MissingConfig(t *testing.T) {
	s := ResolveSettings("web-1", filepath.Join(t.TempDir(), "absent"))

	assert.Equal(t, "web-1", s.Hostname)
	assert.Equal(t, "22", s.Port)
}

func TestResolveSettings_RecordsMatchLine(t *testing.T) {
	path := writeSSHConfig(t, "Host a\n    HostName a.example\nMatch all\n    User x\n")

	s := ResolveSettings("b", path)

	assert.Equal(t, 3, s.MatchLine)
	assert.False(t, s.FromConfig)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/.ssh/id_rsa", expandPath("~/.ssh/id_rsa"))
	assert.Equal(t, "/abs/key", expandPath("/abs/key"))
	assert.Equal(t, "relative/key", expandPath("relative/key"))
}
