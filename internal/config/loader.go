package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/frampt/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".frampt.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/frampt"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'frampt init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .frampt.yaml in current directory
// 3. .frampt.yaml in parent directories (stops at git root or home)
// 4. ~/.config/frampt/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	if path := findUpwards(cwd); path != "" {
		return path, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// findUpwards looks for ConfigFileName in dir and its parents. The walk stops
// at the first git root or at the home directory.
func findUpwards(dir string) string {
	home, _ := os.UserHomeDir()
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		if isGitRoot(dir) {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && parent == home) {
			return ""
		}
		dir = parent
	}
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
// The returned path is empty when defaults are used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	for name, host := range cfg.Hosts {
		cfg.Hosts[name] = ExpandHost(host)
	}
	cfg.KnownHosts = Expand(cfg.KnownHosts)
	cfg.SSHConfig = Expand(cfg.SSHConfig)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", CurrentConfigVersion)
	v.SetDefault("probe_timeout", DefaultProbeTimeout.String())
	v.SetDefault("strict_host_key", true)
}

// ResolveHost picks the host to target. An empty name selects the configured
// default, or the only host when exactly one is configured. A name that is not
// a configured host is treated as a raw address.
func (c *Config) ResolveHost(name string) (string, Host, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		switch len(c.Hosts) {
		case 0:
			return "", Host{}, errors.New(errors.ErrConfig,
				"No host to connect to",
				"Pass --host user@hostname, or run 'frampt init' and add a host")
		case 1:
			for only := range c.Hosts {
				name = only
			}
		default:
			return "", Host{}, errors.New(errors.ErrConfig,
				fmt.Sprintf("Several hosts configured (%s) and no default", strings.Join(c.HostNames(), ", ")),
				"Pick one with --host, or set 'default' in .frampt.yaml")
		}
	}

	if h, ok := c.Hosts[name]; ok {
		return name, h, nil
	}
	// viper lowercases map keys
	if h, ok := c.Hosts[strings.ToLower(name)]; ok {
		return strings.ToLower(name), h, nil
	}

	return name, Host{Address: name}, nil
}

// HostNames returns the configured host names, sorted.
func (c *Config) HostNames() []string {
	names := make([]string, 0, len(c.Hosts))
	for name := range c.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}
