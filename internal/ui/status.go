package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusLine renders "<symbol> <message> <timing>". Zero elapsed omits timing.
func StatusLine(symbol string, color lipgloss.Color, message string, elapsed time.Duration) string {
	line := style(color).Render(symbol) + " " + message
	if elapsed > 0 {
		line += " " + style(ColorMuted).Render(FormatDuration(elapsed))
	}
	return line
}

// Success writes a green ✓ line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StatusLine(SymbolSuccess, ColorSuccess, fmt.Sprintf(format, args...), 0))
}

// Fail writes a red ✗ line.
func Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StatusLine(SymbolFail, ColorError, fmt.Sprintf(format, args...), 0))
}

// Warn writes a yellow ! line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StatusLine(SymbolWarning, ColorWarning, fmt.Sprintf(format, args...), 0))
}

// Muted writes a gray line.
func Muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, style(ColorMuted).Render(fmt.Sprintf(format, args...)))
}

// CommandHeader renders the "› command" line printed before command output.
func CommandHeader(host, command string) string {
	return style(ColorSecondary).Render(SymbolPrompt) + " " +
		style(ColorInfo).Render(host) + " " + command
}

// FormatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

// RenderTranscript draws a session transcript inside a rounded border. Lines
// starting with label are highlighted as commands.
func RenderTranscript(title, transcript, label string) string {
	lines := strings.Split(strings.TrimRight(transcript, "\n"), "\n")
	for i, line := range lines {
		if rest, ok := strings.CutPrefix(line, label); ok {
			lines[i] = style(ColorSecondary).Render(SymbolPrompt+" ") + lipgloss.NewStyle().Bold(true).Render(rest)
		}
	}

	body := strings.Join(lines, "\n")
	if strings.TrimSpace(transcript) == "" {
		body = style(ColorMuted).Render("(no commands run)")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)

	header := lipgloss.NewStyle().Bold(true).Foreground(ColorInfo).Render(title)
	return header + "\n" + box.Render(body)
}
