package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/frampt/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but frampt only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade frampt, or lower 'version' in .frampt.yaml.")
	}

	if cfg.ProbeTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("probe_timeout must be positive, got %s", cfg.ProbeTimeout),
			"Use a duration like '15s' or '2m'.")
	}

	for _, name := range cfg.HostNames() {
		if err := validateHost(name, cfg.Hosts[name]); err != nil {
			return err
		}
	}

	if cfg.Default != "" {
		if _, ok := cfg.Hosts[cfg.Default]; !ok {
			if _, ok := cfg.Hosts[strings.ToLower(cfg.Default)]; !ok {
				return errors.New(errors.ErrConfig,
					fmt.Sprintf("Default host '%s' isn't defined under 'hosts'", cfg.Default),
					fmt.Sprintf("Add it to 'hosts' or pick one of: %s", strings.Join(cfg.HostNames(), ", ")))
			}
		}
	}

	return nil
}

func validateHost(name string, h Host) error {
	suggestion := fmt.Sprintf("Check hosts.%s in .frampt.yaml.", name)

	if strings.TrimSpace(h.Address) == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' has no address", name),
			"Set 'address' to an ssh config alias, hostname, or user@hostname.")
	}
	if strings.ContainsAny(h.Address, " \t") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' address '%s' contains whitespace", name, h.Address),
			suggestion)
	}
	if strings.Contains(h.User, "@") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' user '%s' looks like an address", name, h.User),
			"Put just the login name in 'user'. The hostname goes in 'address'.")
	}

	if h.PublicKey != "" && h.PrivateKey == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' sets public_key without private_key", name),
			"Public key auth needs the private key too. Add 'private_key'.")
	}
	if h.PassphraseEnv != "" && h.PrivateKey == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' sets passphrase_env without private_key", name),
			suggestion)
	}

	for field, env := range map[string]string{"password_env": h.PasswordEnv, "passphrase_env": h.PassphraseEnv} {
		if env != "" && strings.ContainsAny(env, " =$") {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Host '%s' %s '%s' is not a valid environment variable name", name, field, env),
				"Use the variable's name, like FRAMPT_PASSWORD, not its value.")
		}
	}

	return nil
}
