package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/errors"
)

func newProbeCmd(a *app) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that a host answers SSH, without logging in",
		Long: `Open a TCP connection to the host, read its SSH banner, and disconnect.
No credentials are needed, so this is a quick way to tell a network problem
from an authentication problem.

Examples:
  frampt probe
  frampt probe --host 10.0.0.5:2222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProbe(host)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host name from .frampt.yaml, or any address")
	return cmd
}

func (a *app) runProbe(host string) error {
	t, err := a.resolveTarget(host)
	if err != nil {
		return err
	}

	s := a.newSession(t, nil)
	defer a.release(s)

	spinner := a.spinner(fmt.Sprintf("Probing %s (%s)", t.name, t.host.Address))
	spinner.Start()
	if err := s.Connect(); err != nil {
		spinner.Fail(errors.MessageOf(err))
		return err
	}
	spinner.Success()

	return nil
}
