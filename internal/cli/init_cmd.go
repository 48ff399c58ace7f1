package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/internal/ui"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a commented .frampt.yaml in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(config.ConfigFileName, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config")
	return cmd
}

func (a *app) runInit(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil && a.isTerminal() {
			ok, err := a.confirm(fmt.Sprintf("%s already exists. Overwrite it?", path))
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Couldn't get your answer",
					"Pass --force to overwrite without asking")
			}
			if !ok {
				ui.Muted(a.out, "Left %s unchanged", path)
				return nil
			}
			force = true
		}
	}

	if err := config.WriteTemplate(path, force); err != nil {
		return err
	}

	ui.Success(a.out, "Created %s", path)
	ui.Muted(a.out, "Edit the example host, then run 'frampt probe' to check it.")
	return nil
}
