package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// HostRow is one line of the hosts listing.
type HostRow struct {
	Name    string
	Address string
	Auth    string
	Source  string
	Default bool
}

// RenderHostTable renders hosts as a table with a header row.
func RenderHostTable(rows []HostRow) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	mutedCell := cellStyle.Foreground(ColorMuted)
	nameCell := cellStyle.Foreground(ColorInfo)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(style(ColorMuted)).
		Headers("NAME", "ADDRESS", "AUTH", "SOURCE").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameCell
			case col == 3:
				return mutedCell
			default:
				return cellStyle
			}
		})

	for _, r := range rows {
		name := r.Name
		if r.Default {
			name += " " + SymbolComplete
		}
		t.Row(name, r.Address, r.Auth, r.Source)
	}

	return t.String()
}
