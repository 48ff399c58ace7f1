package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/internal/logger"
	"github.com/rileyhilliard/frampt/internal/ui"
	"github.com/rileyhilliard/frampt/pkg/session"
	"github.com/rileyhilliard/frampt/pkg/sshutil"
)

// app carries what commands need from the outside world. Tests replace the
// transport and the terminal hooks.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	debug      bool
	noColor    bool

	newTransport   func(cfg *config.Config, log logger.Logger) session.Transport
	isTerminal     func() bool
	promptPassword func(title string) (string, error)
	pickHost       func(title string, choices []ui.HostChoice) (*ui.HostChoice, error)
	confirm        func(title string) (bool, error)
	getenv         func(string) string
}

func defaultApp() *app {
	a := &app{
		out:    os.Stdout,
		errOut: os.Stderr,
		getenv: os.Getenv,
	}
	a.newTransport = func(cfg *config.Config, log logger.Logger) session.Transport {
		opts := []sshutil.TransportOption{
			sshutil.WithStrictHostKeyChecking(cfg.StrictHostKey),
			sshutil.WithLogger(log),
		}
		if cfg.KnownHosts != "" {
			opts = append(opts, sshutil.WithKnownHosts(cfg.KnownHosts))
		}
		if cfg.SSHConfig != "" {
			opts = append(opts, sshutil.WithSSHConfig(cfg.SSHConfig))
		}
		return sshutil.NewTransport(opts...)
	}
	a.isTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
	a.promptPassword = func(title string) (string, error) {
		return ui.PromptPassword(title, nil, nil)
	}
	a.pickHost = func(title string, choices []ui.HostChoice) (*ui.HostChoice, error) {
		return ui.PickHost(title, choices, os.Stdin, os.Stdout)
	}
	a.confirm = func(title string) (bool, error) {
		return ui.Confirm(title, nil, nil)
	}
	return a
}

func (a *app) logger() logger.Logger {
	if a.debug {
		return logger.NewEnvLogger("[frampt]")
	}
	return logger.Noop()
}

// target is the host a command runs against.
type target struct {
	cfg  *config.Config
	name string
	host config.Host
}

func (a *app) loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// resolveTarget picks the host for hostFlag. When the config can't decide and
// the terminal is interactive, the user picks from the configured hosts.
func (a *app) resolveTarget(hostFlag string) (*target, error) {
	cfg, _, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	name, host, err := cfg.ResolveHost(hostFlag)
	if err != nil {
		if hostFlag != "" || len(cfg.Hosts) == 0 || !a.isTerminal() {
			return nil, err
		}

		choice, pickErr := a.pickHost("Which host?", hostChoices(cfg))
		if pickErr != nil {
			return nil, errors.WrapWithCode(pickErr, errors.ErrConfig,
				"Couldn't get your selection",
				"Pass --host instead")
		}
		if choice == nil {
			return nil, err
		}
		name, host, err = cfg.ResolveHost(choice.Name)
		if err != nil {
			return nil, err
		}
	}

	return &target{cfg: cfg, name: name, host: host}, nil
}

func hostChoices(cfg *config.Config) []ui.HostChoice {
	names := cfg.HostNames()
	choices := make([]ui.HostChoice, len(names))
	for i, name := range names {
		h := cfg.Hosts[name]
		detail := h.Address
		if h.UsesPublicKey() {
			detail += " (key)"
		}
		choices[i] = ui.HostChoice{Name: name, Address: h.Address, Detail: detail}
	}
	return choices
}

// credentials decides how to authenticate to t. Order: the configured private
// key, the password_env variable, an IdentityFile from ssh config, then an
// interactive password prompt.
func (a *app) credentials(t *target) (session.Credentials, error) {
	h := t.host
	creds := session.Credentials{Username: h.User}

	if h.UsesPublicKey() {
		creds.PublicKeyPath = h.PublicKey
		creds.PrivateKeyPath = h.PrivateKey
		if h.PassphraseEnv != "" {
			creds.Passphrase = a.getenv(h.PassphraseEnv)
		}
		return creds, nil
	}

	if h.PasswordEnv != "" {
		if pw := a.getenv(h.PasswordEnv); pw != "" {
			creds.Password = pw
			return creds, nil
		}
	}

	sshConfig := t.cfg.SSHConfig
	if sshConfig == "" {
		sshConfig = sshutil.DefaultSSHConfigPath()
	}
	if settings := sshutil.ResolveSettings(h.Address, sshConfig); settings.IdentityFile != "" {
		if _, err := os.Stat(settings.IdentityFile); err == nil {
			creds.PrivateKeyPath = settings.IdentityFile
			return creds, nil
		}
	}

	if a.isTerminal() {
		pw, err := a.promptPassword(fmt.Sprintf("Password for %s", h.Address))
		if err != nil {
			return creds, errors.WrapWithCode(err, errors.ErrAuth,
				"Couldn't read the password",
				"Set password_env for this host in .frampt.yaml")
		}
		creds.Password = pw
		return creds, nil
	}

	suggestion := "Set private_key or password_env for this host in .frampt.yaml"
	if h.PasswordEnv != "" {
		suggestion = fmt.Sprintf("Export %s, or run from a terminal to be prompted", h.PasswordEnv)
	}
	return creds, errors.New(errors.ErrAuth,
		fmt.Sprintf("No credentials available for %s", t.name),
		suggestion)
}

// newSession builds an unconnected session for t.
func (a *app) newSession(t *target, creds *session.Credentials) *session.Session {
	log := a.logger()
	opts := []session.Option{
		session.WithTransport(a.newTransport(t.cfg, log)),
		session.WithProbeTimeout(t.cfg.ProbeTimeout),
		session.WithLogger(log),
	}
	if creds != nil {
		opts = append(opts, session.WithCredentials(*creds))
	}
	return session.New(t.host.Address, opts...)
}

// open resolves the host, authenticates, and returns a ready session. The
// caller must Close it.
func (a *app) open(hostFlag string) (*session.Session, *target, error) {
	t, err := a.resolveTarget(hostFlag)
	if err != nil {
		return nil, nil, err
	}

	creds, err := a.credentials(t)
	if err != nil {
		return nil, nil, err
	}

	s := a.newSession(t, &creds)

	spinner := a.spinner(fmt.Sprintf("Connecting to %s", t.name))
	spinner.Start()
	if err := s.Authenticate(); err != nil {
		spinner.Fail(errors.MessageOf(err))
		a.release(s)
		return nil, nil, err
	}
	spinner.Success()

	return s, t, nil
}

// release disconnects s and warns when the teardown fails. A failed
// disconnect never changes the command's exit status: by then the command's
// output or transfer has already been delivered, or its own error is returned.
func (a *app) release(s *session.Session) {
	if err := s.Close(); err != nil {
		ui.Warn(a.errOut, "%s", errors.MessageOf(err))
	}
}

func (a *app) spinner(label string) *ui.Spinner {
	return ui.NewSpinner(a.errOut, label, a.isTerminal())
}
