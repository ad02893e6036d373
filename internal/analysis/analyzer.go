// Package analysis defines the collaborator interfaces the engine
// consumes (analyzers, transformation providers, code actions) and
// the diagnostic collector that runs an analyzer over a solution.
package analysis

import (
	"context"
	"fmt"
	"slices"

	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// Analyzer inspects a solution and reports diagnostics per document.
type Analyzer interface {
	// SupportedDiagnostics returns the identifiers the analyzer can
	// report.
	SupportedDiagnostics() []string

	// Analyze returns, for each document, the diagnostics found in it.
	// The order within a document is not significant; the collector
	// sorts by position.
	Analyze(ctx context.Context, sol *solution.Solution) (map[solution.DocumentID][]taxonomy.Diagnostic, error)
}

// Provider proposes code actions that resolve diagnostics.
type Provider interface {
	// FixableDiagnosticIDs returns the identifiers the provider can fix.
	FixableDiagnosticIDs() []string

	// ProposeActions returns the actions available for d in sol.
	ProposeActions(ctx context.Context, d taxonomy.Diagnostic, sol *solution.Solution) ([]CodeAction, error)
}

// CodeAction is one proposed transformation.
type CodeAction interface {
	// Title is the human-readable action title used for
	// disambiguation.
	Title() string

	// Apply returns the transformed solution. It must not modify sol.
	Apply(ctx context.Context, sol *solution.Solution) (*solution.Solution, error)
}

// EditAction is implemented by code actions that can describe their
// change as text edits against the solution they were proposed for.
// Batch fixing merges these edits directly instead of diffing the
// result of Apply.
type EditAction interface {
	CodeAction
	Edits(ctx context.Context, sol *solution.Solution) ([]taxonomy.TextEdit, error)
}

// Named is implemented by collaborators that have a display name.
type Named interface {
	Name() string
}

// NameOf returns the display name of an analyzer or provider: its
// Name method when it has one, otherwise its dynamic type.
func NameOf(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// Supports reports whether id is in ids.
func Supports(ids []string, id string) bool {
	return slices.Contains(ids, id)
}
