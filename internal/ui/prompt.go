package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
)

// PromptPassword asks for a secret with input hidden. in and out are the
// terminal streams; pass nil for both to use the process's terminal.
func PromptPassword(title string, in io.Reader, out io.Writer) (string, error) {
	var secret string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&secret),
		),
	)
	if in != nil {
		form = form.WithInput(in)
	}
	if out != nil {
		form = form.WithOutput(out)
	}

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return secret, nil
}

// Confirm asks a yes/no question.
func Confirm(title string, in io.Reader, out io.Writer) (bool, error) {
	var ok bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&ok),
		),
	)
	if in != nil {
		form = form.WithInput(in)
	}
	if out != nil {
		form = form.WithOutput(out)
	}

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	return ok, nil
}
