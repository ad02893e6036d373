package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== a.txtar ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// SeverityError through SeverityHidden color-code diagnostics.
	SeverityError   lipgloss.Style
	SeverityWarning lipgloss.Style
	SeverityInfo    lipgloss.Style
	SeverityHidden  lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Kind styles failure kinds.
	Kind lipgloss.Style

	// Pass styles PASS indicators.
	Pass lipgloss.Style

	// Fail styles FAIL indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		SeverityHidden:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Kind: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// SeverityStyle returns the style for a diagnostic severity.
func (s Styles) SeverityStyle(sev taxonomy.Severity) lipgloss.Style {
	switch sev {
	case taxonomy.SeverityError:
		return s.SeverityError
	case taxonomy.SeverityWarning:
		return s.SeverityWarning
	case taxonomy.SeverityInfo:
		return s.SeverityInfo
	case taxonomy.SeverityHidden:
		return s.SeverityHidden
	default:
		return s.Muted
	}
}

// Status renders PASS or FAIL.
func (s Styles) Status(passed bool) string {
	if passed {
		return s.Pass.Render("PASS")
	}
	return s.Fail.Render("FAIL")
}
