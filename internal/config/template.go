package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/frampt/internal/errors"
)

// keyComments are written above the matching top-level keys of a new config.
var keyComments = map[string]string{
	"version": "frampt config. Commands read this from the current directory upward,\n" +
		"then from ~/.config/frampt/config.yaml.",
	"hosts": "Hosts you can target with --host. 'address' takes an ssh config alias,\n" +
		"hostname, user@hostname or hostname:port. Set private_key for key auth,\n" +
		"otherwise frampt prompts for a password (or reads password_env).",
	"default":         "Host used when --host is omitted.",
	"probe_timeout":   "How long to wait for the server to accept TCP before giving up.",
	"strict_host_key": "Verify server host keys against ~/.ssh/known_hosts.",
}

// Template returns the config written by 'frampt init'.
func Template() *Config {
	cfg := DefaultConfig()
	cfg.Default = "example"
	cfg.Hosts["example"] = Host{
		Address:    "deploy@example.com",
		PrivateKey: "~/.ssh/id_ed25519",
	}
	return cfg
}

// WriteTemplate writes a commented starter config to path. An existing file is
// only replaced when force is set.
func WriteTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			"Config already exists: "+path,
			"Edit it directly, or pass --force to overwrite it")
	}

	data, err := EncodeCommented(Template())
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config template",
			"This is a bug. Please report it.")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot create config directory "+dir,
				"Check directory permissions")
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file "+path,
			"Check directory permissions")
	}
	return nil
}

// EncodeCommented renders cfg as YAML with a comment above each top-level key.
func EncodeCommented(cfg *Config) ([]byte, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	if root.Kind == yaml.MappingNode {
		for i := 0; i < len(root.Content)-1; i += 2 {
			key := root.Content[i]
			if comment, ok := keyComments[key.Value]; ok {
				key.HeadComment = comment
			}
		}
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return []byte(buf.String()), nil
}
