package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/frampt/pkg/sshutil"
)

// SSHConfigCheck verifies the ssh config parses. Match blocks are reported
// because entries after them are not read.
type SSHConfigCheck struct {
	Path string
}

func (c *SSHConfigCheck) Name() string     { return "ssh_config" }
func (c *SSHConfigCheck) Category() string { return CategorySSH }

func (c *SSHConfigCheck) Run() CheckResult {
	if _, err := os.Stat(c.Path); os.IsNotExist(err) {
		return CheckResult{Status: StatusPass, Message: "No ssh config at " + c.Path}
	}

	hosts, err := sshutil.ListHosts(c.Path)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot parse %s: %v", c.Path, err),
			Suggestion: "Check it with: ssh -G <host>",
		}
	}

	if line := sshutil.ResolveSettings("", c.Path).MatchLine; line > 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s has a Match block at line %d; hosts after it are ignored", c.Path, line),
			Suggestion: "Move Host entries frampt needs above the Match block",
		}
	}

	n := len(hosts)
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%d host%s)", c.Path, n, pluralize(n)),
	}
}

func (c *SSHConfigCheck) Fix() error { return nil }

// KnownHostsCheck verifies the known_hosts file used for host key checking.
type KnownHostsCheck struct {
	Path   string
	Strict bool
}

func (c *KnownHostsCheck) Name() string     { return "known_hosts" }
func (c *KnownHostsCheck) Category() string { return CategorySSH }

func (c *KnownHostsCheck) Run() CheckResult {
	if !c.Strict {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "Host key checking is off",
			Suggestion: "Set strict_host_key: true unless you are on a trusted network",
		}
	}

	info, err := os.Stat(c.Path)
	switch {
	case os.IsNotExist(err):
		return CheckResult{
			Status:     StatusWarn,
			Message:    c.Path + " does not exist; it is created on first connect",
			Suggestion: "Connect once with ssh to record host keys",
			Fixable:    true,
		}
	case err != nil:
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Cannot read %s: %v", c.Path, err),
			Suggestion: "Check file permissions",
		}
	case info.IsDir():
		return CheckResult{
			Status:     StatusFail,
			Message:    c.Path + " is a directory",
			Suggestion: "Point known_hosts at a file",
		}
	}

	return CheckResult{Status: StatusPass, Message: c.Path}
}

// Fix creates an empty known_hosts file.
func (c *KnownHostsCheck) Fix() error {
	if _, err := os.Stat(c.Path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}
