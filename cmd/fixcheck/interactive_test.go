package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

func sampleRunResults() []taxonomy.VerificationResult {
	diag := taxonomy.Diagnostic{
		ID:       "SA1309",
		Severity: taxonomy.SeverityWarning,
		Message:  "Identifier '_x' must not begin with an underscore",
		Location: taxonomy.Location{Document: "a.go", Position: taxonomy.Position{Line: 2, Column: 4}},
	}
	return []taxonomy.VerificationResult{
		{
			Name:        "rename.txtar",
			Mode:        taxonomy.ModeFix,
			Analyzer:    "underscore",
			Passed:      true,
			Diagnostics: []taxonomy.Diagnostic{diag},
			Fixes: []taxonomy.FixApplication{{
				Iteration:        1,
				Action:           "Rename to 'x'",
				ChangedDocuments: []string{"a.go"},
			}},
		},
		{
			Name:     "broken.txtar",
			Mode:     taxonomy.ModeDiagnostics,
			Analyzer: "underscore",
			Failure: &taxonomy.Failure{
				Kind:    "COUNT_MISMATCH",
				Message: "Expected 2 diagnostics, found 1.",
			},
		},
	}
}

// TestRenderRunContent_EmptyResults verifies the title for no cases.
func TestRenderRunContent_EmptyResults(t *testing.T) {
	output := renderRunContent(nil, false)
	if !strings.Contains(output, "0 case(s), 0 passed, 0 failed") {
		t.Errorf("expected zero counts, got:\n%s", output)
	}
}

// TestRenderRunContent_AllResults verifies that passing and failing
// cases are both rendered with their details.
func TestRenderRunContent_AllResults(t *testing.T) {
	output := renderRunContent(sampleRunResults(), false)

	for _, want := range []string{
		"2 case(s), 1 passed, 1 failed",
		"rename.txtar",
		"broken.txtar",
		"COUNT_MISMATCH",
		"Expected 2 diagnostics, found 1.",
		"SA1309",
		"a.go:3:5",
		"fix #1: Rename to 'x' (a.go)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

// TestRenderRunContent_FailuresOnly verifies the failure filter.
func TestRenderRunContent_FailuresOnly(t *testing.T) {
	output := renderRunContent(sampleRunResults(), true)

	if strings.Contains(output, "rename.txtar") {
		t.Errorf("passing case should be hidden, got:\n%s", output)
	}
	if !strings.Contains(output, "broken.txtar") {
		t.Errorf("failing case should be shown, got:\n%s", output)
	}
	if !strings.Contains(output, "(failures only)") {
		t.Errorf("title should mention the filter, got:\n%s", output)
	}
}

// TestRenderRunContent_MessageTruncation verifies that long
// diagnostic messages are cut to 50 characters.
func TestRenderRunContent_MessageTruncation(t *testing.T) {
	long := "this is a very long message that exceeds fifty characters by a lot"
	results := []taxonomy.VerificationResult{{
		Name:   "long.txtar",
		Passed: true,
		Diagnostics: []taxonomy.Diagnostic{{
			ID:       "X",
			Severity: taxonomy.SeverityInfo,
			Message:  long,
			Location: taxonomy.Location{Document: "a.go"},
		}},
	}}

	output := renderRunContent(results, false)
	if strings.Contains(output, long) {
		t.Error("expected long message to be truncated")
	}
	if !strings.Contains(output, long[:47]+"...") {
		t.Errorf("expected truncated message, got:\n%s", output)
	}
}

// TestRunModel_Update covers sizing, the failure toggle and quitting.
func TestRunModel_Update(t *testing.T) {
	m := newRunModel(sampleRunResults())
	if m.View() != "Initializing..." {
		t.Errorf("View() before sizing = %q", m.View())
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(runModel)
	if !m.ready {
		t.Fatal("model should be ready after WindowSizeMsg")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m = next.(runModel)
	if !m.failuresOnly || strings.Contains(m.content, "rename.txtar") {
		t.Error("'f' should switch to failures only")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	m = next.(runModel)
	if !m.help.ShowAll {
		t.Error("'?' should expand help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("'q' should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' should quit")
	}
}
