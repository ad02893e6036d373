package analysis

import (
	"context"

	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// SuggestedFixes returns a provider that offers the suggested fixes
// an analyzer attached to its diagnostics, one code action per fix.
// It can fix the given ids.
func SuggestedFixes(ids ...string) Provider {
	return suggestedFixes{ids: ids}
}

type suggestedFixes struct {
	ids []string
}

func (p suggestedFixes) Name() string { return "suggested-fixes" }

func (p suggestedFixes) FixableDiagnosticIDs() []string { return p.ids }

func (p suggestedFixes) ProposeActions(ctx context.Context, d taxonomy.Diagnostic, _ *solution.Solution) ([]CodeAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	actions := make([]CodeAction, 0, len(d.Fixes))
	for _, f := range d.Fixes {
		actions = append(actions, &EditsAction{ActionTitle: f.Title, TextEdits: f.Edits})
	}
	return actions, nil
}

// EditsAction is a code action defined by a fixed list of text edits.
type EditsAction struct {
	ActionTitle string
	TextEdits   []taxonomy.TextEdit
}

// Title returns the action title.
func (a *EditsAction) Title() string { return a.ActionTitle }

// Apply applies the edits to sol.
func (a *EditsAction) Apply(ctx context.Context, sol *solution.Solution) (*solution.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sol.ApplyEdits(a.TextEdits)
}

// Edits returns the action's edits.
func (a *EditsAction) Edits(context.Context, *solution.Solution) ([]taxonomy.TextEdit, error) {
	return a.TextEdits, nil
}
