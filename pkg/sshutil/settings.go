package sshutil

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Settings holds the connection parameters resolved for a session address.
type Settings struct {
	Hostname     string
	Port         string
	User         string
	IdentityFile string

	// MatchLine is the line of the first Match block in the ssh config, if any.
	// Entries after it are invisible to the resolver.
	MatchLine int
	// FromConfig is true when the ssh config had an entry for the host.
	FromConfig bool
}

// Address returns the host:port string for dialing.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Hostname, s.Port)
}

// ResolveSettings parses address and fills in defaults from the ssh config at
// configPath. address can be:
//   - an ssh config alias (e.g., "web-1")
//   - a hostname or IP (e.g., "192.168.1.100")
//   - user@hostname (e.g., "deploy@192.168.1.100")
//   - hostname:port (e.g., "192.168.1.100:2222")
//
// An explicit user or port in address wins over the ssh config.
func ResolveSettings(address, configPath string) Settings {
	settings := Settings{
		Port: "22",
		User: currentUser(),
	}

	host := address
	explicitUser, explicitPort := false, false

	if atIdx := strings.Index(host, "@"); atIdx != -1 {
		settings.User = host[:atIdx]
		host = host[atIdx+1:]
		explicitUser = true
	}

	if h, p, err := net.SplitHostPort(host); err == nil && isPort(p) {
		host = h
		settings.Port = p
		explicitPort = true
	}

	settings.Hostname = host

	if configPath == "" {
		return settings
	}

	content, matchLine, err := preprocessSSHConfig(configPath)
	if err != nil {
		// Missing or unreadable config just means defaults
		return settings
	}
	settings.MatchLine = matchLine

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return settings
	}

	if hostname, _ := cfg.Get(host, "HostName"); hostname != "" {
		settings.Hostname = hostname
		settings.FromConfig = true
	}
	if port, _ := cfg.Get(host, "Port"); port != "" {
		if !explicitPort {
			settings.Port = port
		}
		settings.FromConfig = true
	}
	if user, _ := cfg.Get(host, "User"); user != "" {
		if !explicitUser {
			settings.User = user
		}
		settings.FromConfig = true
	}
	if identity, _ := cfg.Get(host, "IdentityFile"); identity != "" {
		settings.IdentityFile = expandPath(identity)
		settings.FromConfig = true
	}

	return settings
}

// DefaultSSHConfigPath returns ~/.ssh/config.
func DefaultSSHConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() string {
	return filepath.Join(homeDir(), ".ssh", "known_hosts")
}

// preprocessSSHConfig reads the ssh config and returns content up to the first
// Match directive, which ssh_config cannot parse. Also returns the 1-indexed
// line of that directive (0 if there is none).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}

func isPort(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
