package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/fixcheck/internal/report"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Failures key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Failures, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Failures, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Failures: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "failures only")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))
)

// runModel is the Bubble Tea model for browsing verification results.
type runModel struct {
	results      []taxonomy.VerificationResult
	viewport     viewport.Model
	help         help.Model
	keys         keyMap
	ready        bool
	failuresOnly bool
	content      string
}

func newRunModel(results []taxonomy.VerificationResult) runModel {
	return runModel{
		results: results,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderRunContent(results, false),
	}
}

func renderRunContent(results []taxonomy.VerificationResult, failuresOnly bool) string {
	var sb strings.Builder
	s := report.DefaultStyles()
	sum := report.Summarize(results)

	title := fmt.Sprintf("fixcheck: %d case(s), %d passed, %d failed",
		sum.Total, sum.Passed, sum.Failed)
	if failuresOnly {
		title += " (failures only)"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	for _, result := range results {
		if failuresOnly && result.Passed {
			continue
		}
		sb.WriteString(s.Status(result.Passed))
		sb.WriteString(" ")
		sb.WriteString(tuiHeaderStyle.Render(result.Name))
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render(fmt.Sprintf("    %s, %s", result.Mode, result.Analyzer)))
		sb.WriteString("\n")

		if result.Failure != nil {
			sb.WriteString("    " + s.Kind.Render(result.Failure.Kind) + "\n")
			for _, line := range strings.Split(result.Failure.Message, "\n") {
				sb.WriteString("    " + line + "\n")
			}
		}

		if len(result.Diagnostics) > 0 {
			rows := make([][]string, 0, len(result.Diagnostics))
			for _, d := range result.Diagnostics {
				msg := d.Message
				if len(msg) > 50 {
					msg = msg[:47] + "..."
				}
				rows = append(rows, []string{d.ID, string(d.Severity), d.Location.String(), msg})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(tuiBorderStyle).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return tuiHeaderStyle
					}
					if col == 1 && row >= 0 && row < len(rows) {
						return s.SeverityStyle(taxonomy.Severity(rows[row][1]))
					}
					return lipgloss.NewStyle()
				}).
				Headers("ID", "SEVERITY", "LOCATION", "MESSAGE").
				Rows(rows...)

			sb.WriteString(t.String())
			sb.WriteString("\n")
		}

		for _, f := range result.Fixes {
			sb.WriteString(statusStyle.Render(fmt.Sprintf("    fix #%d: %s (%s)",
				f.Iteration, f.Action, strings.Join(f.ChangedDocuments, ", "))))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m runModel) Init() tea.Cmd {
	return nil
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Failures):
			m.failuresOnly = !m.failuresOnly
			m.content = renderRunContent(m.results, m.failuresOnly)
			if m.ready {
				m.viewport.SetContent(m.content)
				m.viewport.GotoTop()
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m runModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractive launches the Bubble Tea TUI for browsing
// verification results.
func runInteractive(results []taxonomy.VerificationResult) error {
	model := newRunModel(results)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
