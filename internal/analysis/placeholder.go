package analysis

import (
	"context"

	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// Placeholder returns an analyzer that supports id but reports
// nothing. It is used to verify providers that fix compiler
// diagnostics such as "typecheck", which the collector reports on its
// own.
func Placeholder(id string) Analyzer {
	return placeholder{id: id}
}

type placeholder struct {
	id string
}

func (p placeholder) Name() string { return "placeholder(" + p.id + ")" }

func (p placeholder) SupportedDiagnostics() []string { return []string{p.id} }

func (p placeholder) Analyze(context.Context, *solution.Solution) (map[solution.DocumentID][]taxonomy.Diagnostic, error) {
	return nil, nil
}
