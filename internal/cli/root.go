// Package cli implements the frampt command line: a thin layer that loads
// .frampt.yaml, opens a session.Session to the chosen host and reports results
// through internal/ui.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/logger"
	"github.com/rileyhilliard/frampt/internal/ui"
)

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "frampt",
		Short: "Run commands and move files on a remote host over SSH",
		Long: `frampt opens one SSH session to a host and runs commands on it in order,
capturing each command's output and a transcript of the whole session.
It can also send and receive files over SFTP.

Hosts come from .frampt.yaml (see 'frampt init'), or pass any ssh config
alias, hostname or user@host:port with --host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.debug {
				_ = os.Setenv(logger.DebugEnv, "1")
			}
			if a.noColor || os.Getenv("NO_COLOR") != "" {
				ui.DisableColors()
			}
		},
	}

	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: .frampt.yaml, searched upward)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log session and transport activity to stderr")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newExecCmd(a),
		newSendCmd(a),
		newReceiveCmd(a),
		newProbeCmd(a),
		newHostsCmd(a),
		newInitCmd(a),
		newDoctorCmd(a),
		newVersionCmd(a),
	)

	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	a := defaultApp()
	if err := newRootCmd(a).Execute(); err != nil {
		msg := err.Error()
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		fmt.Fprint(a.errOut, msg)
		os.Exit(1)
	}
}
