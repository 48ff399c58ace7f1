package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/internal/doctor"
	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/internal/ui"
	"github.com/rileyhilliard/frampt/pkg/sshutil"
)

type doctorOptions struct {
	fix     bool
	offline bool
}

func newDoctorCmd(a *app) *cobra.Command {
	opts := &doctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config, keys and host reachability",
		Long: `Run local diagnostics: the config file, key files used for public key
auth, ssh config and known_hosts, and whether each configured host answers
SSH. Hosts are probed in parallel and never logged in to.

Examples:
  frampt doctor
  frampt doctor --fix       # chmod loose keys, create known_hosts
  frampt doctor --offline   # skip host probes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.fix, "fix", false, "repair issues that can be fixed automatically")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "skip host reachability checks")
	return cmd
}

func (a *app) runDoctor(opts *doctorOptions) error {
	path, findErr := config.Find(a.configPath)
	valid := &doctor.ConfigValidCheck{Path: path}
	checks := []doctor.Check{
		&doctor.ConfigFileCheck{Path: path, Err: findErr},
		valid,
	}
	results := doctor.RunAll(checks)

	cfg := valid.Config()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	knownHosts := cfg.KnownHosts
	if knownHosts == "" {
		knownHosts = sshutil.DefaultKnownHostsPath()
	}
	local := append(doctor.NewKeyChecks(cfg, a.getenv),
		&doctor.SSHConfigCheck{Path: sshConfigPath(cfg)},
		&doctor.KnownHostsCheck{Path: knownHosts, Strict: cfg.StrictHostKey},
	)
	checks = append(checks, local...)
	results = append(results, doctor.RunAll(local)...)

	if !opts.offline && len(cfg.Hosts) > 0 {
		hostChecks := doctor.NewHostsChecks(cfg, a.newTransport(cfg, a.logger()))
		spinner := a.spinner(fmt.Sprintf("Probing %d host(s)", len(hostChecks)))
		spinner.Start()
		hostResults := doctor.RunAllParallel(hostChecks)
		if doctor.HasFailures(hostResults) {
			spinner.Fail("")
		} else {
			spinner.Success()
		}

		checks = append(checks, hostChecks...)
		results = append(results, hostResults...)
	}

	a.printDoctorResults(results)

	if opts.fix && doctor.FixableCount(results) > 0 {
		fixed, err := doctor.FixAll(checks, results)
		for _, name := range fixed {
			ui.Success(a.out, "Fixed %s", name)
		}
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't fix every issue",
				"Fix the remaining issues by hand")
		}
		for i, r := range results {
			if r.Fixable && r.Status != doctor.StatusPass {
				results[i] = doctor.RunAll(checks[i : i+1])[0]
			}
		}
	} else if n := doctor.FixableCount(results); n > 0 {
		ui.Muted(a.out, "%d issue(s) can be fixed with 'frampt doctor --fix'", n)
	}

	fmt.Fprintln(a.out)
	if doctor.HasFailures(results) {
		return errors.New(errors.ErrConfig,
			doctor.Summary(results),
			"Fix the failed checks above, then run 'frampt doctor' again")
	}
	if doctor.CountByStatus(results)[doctor.StatusWarn] > 0 {
		ui.Warn(a.out, "%s", doctor.Summary(results))
		return nil
	}
	ui.Success(a.out, "%s", doctor.Summary(results))
	return nil
}

func (a *app) printDoctorResults(results []doctor.CheckResult) {
	grouped := doctor.ByCategory(results)
	for _, category := range doctor.Categories {
		rs := grouped[category]
		if len(rs) == 0 {
			continue
		}

		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, category)
		for _, r := range rs {
			fmt.Fprint(a.out, "  ")
			switch r.Status {
			case doctor.StatusPass:
				ui.Success(a.out, "%s", r.Message)
			case doctor.StatusWarn:
				ui.Warn(a.out, "%s", r.Message)
			default:
				ui.Fail(a.out, "%s", r.Message)
			}
			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				ui.Muted(a.out, "    %s", r.Suggestion)
			}
		}
	}
}
