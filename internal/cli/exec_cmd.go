package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/internal/ui"
	"github.com/rileyhilliard/frampt/pkg/session"
)

type execOptions struct {
	host       string
	transcript bool
	quiet      bool
}

func newExecCmd(a *app) *cobra.Command {
	opts := &execOptions{}

	cmd := &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run commands on the remote host in one session",
		Long: `Open one session to the host and run each argument as a separate command,
in order. Each command's output is printed as it finishes. A command that
exits non-zero still counts as run; its output is the result.

Examples:
  frampt exec uptime
  frampt exec --host web-1 "cd /srv/app && git pull" "systemctl restart app"
  frampt exec --transcript hostname whoami`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExec(opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "host name from .frampt.yaml, or any address")
	cmd.Flags().BoolVar(&opts.transcript, "transcript", false, "print the session transcript after all commands instead of per-command output")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only command output")

	return cmd
}

func (a *app) runExec(opts *execOptions, commands []string) error {
	for _, c := range commands {
		if strings.TrimSpace(c) == "" {
			return errors.New(errors.ErrCommand,
				"Empty command",
				"Quote each command, e.g. frampt exec \"ls -la\" \"df -h\"")
		}
	}

	s, t, err := a.open(opts.host)
	if err != nil {
		return err
	}
	defer a.release(s)

	for _, c := range commands {
		if !opts.transcript && !opts.quiet {
			fmt.Fprintln(a.out, ui.CommandHeader(t.name, c))
		}

		if err := s.RunCommand(c); err != nil {
			if opts.transcript {
				a.printTranscript(t.name, s)
			}
			return err
		}

		if !opts.transcript {
			fmt.Fprint(a.out, s.LastOutput())
		}
		s.ClearLastOutput()
	}

	if opts.transcript {
		a.printTranscript(t.name, s)
	}

	return nil
}

func (a *app) printTranscript(name string, s *session.Session) {
	fmt.Fprintln(a.out, ui.RenderTranscript(name, s.SessionTranscript(), session.CommandLabel))
}
