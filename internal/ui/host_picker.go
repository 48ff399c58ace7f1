package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HostChoice is one entry in the host picker.
type HostChoice struct {
	Name    string // what --host would take
	Address string
	Detail  string // shown under the name
}

type hostItem struct {
	choice HostChoice
}

func (i hostItem) Title() string { return i.choice.Name }

func (i hostItem) Description() string {
	if i.choice.Detail != "" {
		return i.choice.Detail
	}
	return i.choice.Address
}

func (i hostItem) FilterValue() string {
	return strings.Join([]string{i.choice.Name, i.choice.Address, i.choice.Detail}, " ")
}

type hostPickerKeyMap struct {
	Enter key.Binding
	Quit  key.Binding
}

var hostPickerKeys = hostPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// HostPickerModel is a Bubble Tea model for choosing a host.
type HostPickerModel struct {
	list     list.Model
	selected *HostChoice
	quitting bool
}

// NewHostPickerModel creates a picker over choices.
func NewHostPickerModel(title string, choices []HostChoice) HostPickerModel {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = hostItem{choice: c}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = style(ColorMuted)

	return HostPickerModel{list: l}
}

// Init implements tea.Model.
func (m HostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, hostPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(hostItem); ok {
				m.selected = &item.choice
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m HostPickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen host, or nil if the picker was cancelled.
func (m HostPickerModel) Selected() *HostChoice {
	return m.selected
}

// PickHost runs the picker on the given terminal streams. It returns nil with
// no error when the user cancels.
func PickHost(title string, choices []HostChoice, in io.Reader, out io.Writer) (*HostChoice, error) {
	if len(choices) == 0 {
		return nil, nil
	}

	p := tea.NewProgram(
		NewHostPickerModel(title, choices),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("host picker error: %w", err)
	}

	if m, ok := final.(HostPickerModel); ok {
		return m.Selected(), nil
	}
	return nil, nil
}
