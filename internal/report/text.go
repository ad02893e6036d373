package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/fixcheck/internal/analyzers"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// TextOptions configures WriteText.
type TextOptions struct {
	// Verbose adds the collected diagnostics and the fix chain of
	// every result, not only failing ones.
	Verbose bool
}

// WriteText writes verification results as human-readable styled text
// to the writer. Output uses lipgloss for color and formatting when
// the output is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, results []taxonomy.VerificationResult, opts TextOptions) error {
	s := DefaultStyles()

	for i, result := range results {
		if i > 0 && (opts.Verbose || !result.Passed) {
			fmt.Fprintln(w)
		}
		writeOneResult(w, result, s, opts)
	}

	sum := Summarize(results)
	status := s.Pass.Render("ok")
	if sum.Failed > 0 {
		status = s.Fail.Render("FAILED")
	}
	fmt.Fprintf(w, "\n%s %s\n",
		s.Header.Render(fmt.Sprintf("%d case(s) run, %d passed, %d failed",
			sum.Total, sum.Passed, sum.Failed)),
		status)
	return nil
}

func writeOneResult(w io.Writer, result taxonomy.VerificationResult, s Styles, opts TextOptions) {
	fmt.Fprintf(w, "%s %s %s\n",
		s.Status(result.Passed),
		s.Header.Render(result.Name),
		s.SubHeader.Render(fmt.Sprintf("(%s, %s, %dms)",
			result.Mode, result.Analyzer, result.Metadata.Duration.Milliseconds())))

	if result.Failure != nil {
		fmt.Fprintf(w, "    %s\n", s.Kind.Render(result.Failure.Kind))
		fmt.Fprintln(w, indent(result.Failure.Message, "    "))
	}
	if !opts.Verbose && result.Passed {
		return
	}

	if len(result.Diagnostics) > 0 {
		fmt.Fprintln(w, diagnosticsTable(result.Diagnostics, s))
	}
	for _, f := range result.Fixes {
		fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf("    fix #%d: %s via %s, changed %s",
			f.Iteration, f.Action, f.Provider, strings.Join(f.ChangedDocuments, ", "))))
	}
}

// diagnosticsTable renders diagnostics with lipgloss/table.
// Budget: 80 cols total. Borders take 5, padding 8 for 4 columns.
// Available: 67. ID=8, SEVERITY=8, LOCATION=17, MESSAGE=34.
func diagnosticsTable(diags []taxonomy.Diagnostic, s Styles) *table.Table {
	const maxMessage = 34
	rows := make([][]string, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, []string{
			d.ID,
			string(d.Severity),
			d.Location.String(),
			truncate(d.Message, maxMessage),
		})
	}

	return table.New().
		Width(76). // Leave 4 chars for left indent.
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(rows) {
				return s.SeverityStyle(taxonomy.Severity(rows[row][1]))
			}
			return s.TableCell
		}).
		Headers("ID", "SEVERITY", "LOCATION", "MESSAGE").
		Rows(rows...)
}

// WriteAnalyzers lists the registered analyzers as a table.
func WriteAnalyzers(w io.Writer, entries []analyzers.Entry) error {
	s := DefaultStyles()
	const maxDoc = 40
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		fixable := "no"
		if e.Fixable {
			fixable = "yes"
		}
		rows = append(rows, []string{
			e.Name,
			strings.Join(e.IDs, ","),
			fixable,
			truncate(e.Doc, maxDoc),
		})
	}

	t := table.New().
		Width(80).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return s.TableCell
		}).
		Headers("NAME", "IDS", "FIXES", "DESCRIPTION").
		Rows(rows...)

	_, err := fmt.Fprintln(w, t)
	return err
}

func truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-3]) + "..."
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
