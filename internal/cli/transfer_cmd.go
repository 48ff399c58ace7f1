package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/frampt/internal/errors"
	"github.com/rileyhilliard/frampt/pkg/session"
)

func newSendCmd(a *app) *cobra.Command {
	var host, mode string

	cmd := &cobra.Command{
		Use:   "send <local> <remote>",
		Short: "Copy a local file to the remote host",
		Long: `Copy a local file to the remote host over SFTP. Missing remote parent
directories are created.

Examples:
  frampt send ./app.tar.gz /srv/releases/app.tar.gz
  frampt send --mode 0755 ./deploy.sh /usr/local/bin/deploy`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			perm, err := parseMode(mode)
			if err != nil {
				return err
			}
			return a.runSend(host, args[0], args[1], perm)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host name from .frampt.yaml, or any address")
	cmd.Flags().StringVar(&mode, "mode", "", "octal file mode to set on the remote file (e.g., 0644)")
	return cmd
}

func newReceiveCmd(a *app) *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "receive <remote> <local>",
		Short: "Copy a file from the remote host",
		Long: `Copy a file from the remote host over SFTP, replacing the local file.

Examples:
  frampt receive /var/log/app.log ./app.log`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReceive(host, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host name from .frampt.yaml, or any address")
	return cmd
}

// parseMode reads an octal permission string. Empty means "leave as is".
func parseMode(s string) (*os.FileMode, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil || v > 0o7777 {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a valid file mode", s),
			"Use octal permissions like 0644 or 755.")
	}
	return session.Perm(os.FileMode(v)), nil
}

func (a *app) runSend(host, local, remote string, perm *os.FileMode) error {
	info, err := os.Stat(local)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCommand,
			"Can't read "+local,
			"Check the local path")
	}
	if info.IsDir() {
		return errors.New(errors.ErrCommand,
			local+" is a directory",
			"send copies single files. Archive the directory first (tar czf).")
	}

	s, t, err := a.open(host)
	if err != nil {
		return err
	}
	defer a.release(s)

	spinner := a.spinner(fmt.Sprintf("Sending %s to %s:%s", filepath.Base(local), t.name, remote))
	spinner.Start()
	if err := s.SendFile(local, remote, perm); err != nil {
		spinner.Fail(errors.MessageOf(err))
		return err
	}
	spinner.Success()

	return nil
}

func (a *app) runReceive(host, remote, local string) error {
	s, t, err := a.open(host)
	if err != nil {
		return err
	}
	defer a.release(s)

	spinner := a.spinner(fmt.Sprintf("Receiving %s:%s into %s", t.name, remote, local))
	spinner.Start()
	if err := s.ReceiveFile(remote, local); err != nil {
		spinner.Fail(errors.MessageOf(err))
		return err
	}
	spinner.Success()

	return nil
}
