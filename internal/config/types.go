package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultProbeTimeout matches the session's default reachability timeout.
const DefaultProbeTimeout = 15 * time.Second

// Config represents the complete .frampt.yaml configuration file.
type Config struct {
	Version int             `yaml:"version" mapstructure:"version"`
	Hosts   map[string]Host `yaml:"hosts" mapstructure:"hosts"`
	Default string          `yaml:"default,omitempty" mapstructure:"default"`

	// ProbeTimeout bounds the reachability check before each connect.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`

	// StrictHostKey verifies server keys against KnownHosts.
	StrictHostKey bool `yaml:"strict_host_key" mapstructure:"strict_host_key"`

	// KnownHosts overrides ~/.ssh/known_hosts.
	KnownHosts string `yaml:"known_hosts,omitempty" mapstructure:"known_hosts"`

	// SSHConfig overrides ~/.ssh/config for address resolution.
	SSHConfig string `yaml:"ssh_config,omitempty" mapstructure:"ssh_config"`
}

// Host defines a remote machine and how to authenticate to it.
type Host struct {
	// Address can be an ssh config alias, hostname, user@hostname or
	// hostname:port.
	Address string `yaml:"address" mapstructure:"address"`

	// User overrides the user from Address or ssh config.
	User string `yaml:"user,omitempty" mapstructure:"user"`

	// PasswordEnv names the environment variable holding the password.
	PasswordEnv string `yaml:"password_env,omitempty" mapstructure:"password_env"`

	// PublicKey and PrivateKey are key pair paths. Setting PrivateKey selects
	// public key authentication.
	PublicKey  string `yaml:"public_key,omitempty" mapstructure:"public_key"`
	PrivateKey string `yaml:"private_key,omitempty" mapstructure:"private_key"`

	// PassphraseEnv names the environment variable holding the key passphrase.
	PassphraseEnv string `yaml:"passphrase_env,omitempty" mapstructure:"passphrase_env"`
}

// UsesPublicKey reports whether the host authenticates with a key pair.
func (h Host) UsesPublicKey() bool {
	return h.PrivateKey != ""
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:       CurrentConfigVersion,
		Hosts:         make(map[string]Host),
		ProbeTimeout:  DefaultProbeTimeout,
		StrictHostKey: true,
	}
}
