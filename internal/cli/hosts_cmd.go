package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/internal/ui"
	"github.com/rileyhilliard/frampt/pkg/sshutil"
)

func newHostsCmd(a *app) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "List the hosts frampt can connect to",
		Long: `List hosts from .frampt.yaml followed by the aliases in your ssh config.
The default host is marked with ●.

With --pick, choose a host interactively and print its name, e.g.
  frampt exec --host "$(frampt hosts --pick)" uptime`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHosts(pick)
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "choose a host interactively and print its name")
	return cmd
}

func (a *app) runHosts(pick bool) error {
	cfg, path, err := a.loadConfig()
	if err != nil {
		return err
	}

	sshHosts, err := sshutil.ListHosts(sshConfigPath(cfg))
	if err != nil {
		ui.Warn(a.errOut, "Couldn't read ssh config: %v", err)
	}

	if pick {
		return a.pickAndPrint(cfg, sshHosts)
	}

	rows := hostRows(cfg, path, sshHosts)
	if len(rows) == 0 {
		ui.Muted(a.out, "No hosts found. Run 'frampt init' to create .frampt.yaml.")
		return nil
	}
	fmt.Fprintln(a.out, ui.RenderHostTable(rows))
	return nil
}

func (a *app) pickAndPrint(cfg *config.Config, sshHosts []sshutil.HostEntry) error {
	if !a.isTerminal() {
		return errors.New(errors.ErrConfig,
			"--pick needs an interactive terminal",
			"Run 'frampt hosts' to list hosts instead")
	}

	choices := hostChoices(cfg)
	for _, h := range sshHosts {
		if _, ok := cfg.Hosts[h.Alias]; ok {
			continue
		}
		choices = append(choices, ui.HostChoice{Name: h.Alias, Address: h.Alias, Detail: h.Description()})
	}
	if len(choices) == 0 {
		return errors.New(errors.ErrConfig,
			"No hosts to pick from",
			"Add hosts to .frampt.yaml or ~/.ssh/config")
	}

	choice, err := a.pickHost("Pick a host", choices)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your selection",
			"Pass --host to commands instead")
	}
	if choice == nil {
		return nil
	}
	fmt.Fprintln(a.out, choice.Name)
	return nil
}

func hostRows(cfg *config.Config, path string, sshHosts []sshutil.HostEntry) []ui.HostRow {
	source := "built-in"
	if path != "" {
		source = path
	}

	var rows []ui.HostRow
	for _, name := range cfg.HostNames() {
		h := cfg.Hosts[name]
		rows = append(rows, ui.HostRow{
			Name:    name,
			Address: h.Address,
			Auth:    authLabel(h),
			Source:  source,
			Default: name == cfg.Default,
		})
	}

	for _, h := range sshHosts {
		if _, ok := cfg.Hosts[h.Alias]; ok {
			continue
		}
		auth := "password"
		if h.HasIdentityFile() {
			auth = "key"
		}
		rows = append(rows, ui.HostRow{
			Name:    h.Alias,
			Address: h.Description(),
			Auth:    auth,
			Source:  "ssh config",
		})
	}
	return rows
}

func authLabel(h config.Host) string {
	switch {
	case h.UsesPublicKey():
		return "key"
	case h.PasswordEnv != "":
		return "password ($" + h.PasswordEnv + ")"
	default:
		return "password"
	}
}

func sshConfigPath(cfg *config.Config) string {
	if cfg.SSHConfig != "" {
		return cfg.SSHConfig
	}
	return sshutil.DefaultSSHConfigPath()
}
