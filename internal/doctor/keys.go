package doctor

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/pkg/sshutil"
)

// KeyFileCheck verifies a host's key pair can be used for public key auth.
type KeyFileCheck struct {
	HostName   string
	Host       config.Host
	Passphrase string // value of the host's passphrase_env, if any
}

func (c *KeyFileCheck) Name() string     { return "key_" + c.HostName }
func (c *KeyFileCheck) Category() string { return CategoryKeys }

func (c *KeyFileCheck) Run() CheckResult {
	path := c.Host.PrivateKey

	info, err := os.Stat(path)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: private key %s not found", c.HostName, path),
			Suggestion: "Generate one with: ssh-keygen -t ed25519 -f " + path,
		}
	}

	_, err = sshutil.LoadKeyPair(c.Host.PublicKey, path, c.Passphrase)
	var encrypted *sshutil.EncryptedKeyError
	var mismatch *sshutil.KeyMismatchError
	switch {
	case stderrors.As(err, &encrypted):
		suggestion := "Set passphrase_env for this host in " + config.ConfigFileName
		if c.Host.PassphraseEnv != "" {
			suggestion = "Export " + c.Host.PassphraseEnv
		}
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %s is encrypted and no passphrase is set", c.HostName, path),
			Suggestion: suggestion,
		}
	case stderrors.As(err, &mismatch):
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %s does not belong to %s", c.HostName, c.Host.PublicKey, path),
			Suggestion: "Regenerate it with: ssh-keygen -y -f " + path,
		}
	case err != nil:
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %v", c.HostName, err),
			Suggestion: "Check the key files are OpenSSH or PEM keys",
		}
	}

	if info.Mode().Perm()&0o077 != 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s: %s is readable by other users (%04o)", c.HostName, path, info.Mode().Perm()),
			Suggestion: "Fix: chmod 600 " + path,
			Fixable:    true,
		}
	}

	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("%s: %s", c.HostName, path)}
}

func (c *KeyFileCheck) Fix() error {
	info, err := os.Stat(c.Host.PrivateKey)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o077 == 0 {
		return nil
	}
	if err := os.Chmod(c.Host.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to fix permissions on %s: %w", c.Host.PrivateKey, err)
	}
	return nil
}

// NewKeyChecks creates a KeyFileCheck for every host that uses public key
// auth. getenv resolves passphrase_env.
func NewKeyChecks(cfg *config.Config, getenv func(string) string) []Check {
	var checks []Check
	for _, name := range cfg.HostNames() {
		h := cfg.Hosts[name]
		if !h.UsesPublicKey() {
			continue
		}
		check := &KeyFileCheck{HostName: name, Host: h}
		if h.PassphraseEnv != "" {
			check.Passphrase = getenv(h.PassphraseEnv)
		}
		checks = append(checks, check)
	}
	return checks
}
