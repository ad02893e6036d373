package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// Collected holds the diagnostics of one analyzer run.
type Collected struct {
	// ByDocument holds the analyzer's diagnostics per document,
	// ordered by position then id.
	ByDocument map[solution.DocumentID][]taxonomy.Diagnostic

	// Analyzer is ByDocument flattened in document order.
	Analyzer []taxonomy.Diagnostic

	// Compiler holds the syntax, type and reference errors of the
	// solution.
	Compiler []taxonomy.Diagnostic
}

// Collect runs a on sol and gathers its diagnostics together with the
// solution's compiler diagnostics. Analyzer failures are wrapped as
// COLLABORATOR errors.
func Collect(ctx context.Context, a Analyzer, sol *solution.Solution) (*Collected, error) {
	if err := ctx.Err(); err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator, "analysis canceled", err)
	}

	raw, err := a.Analyze(ctx, sol)
	if err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator,
			fmt.Sprintf("analyzer %s failed", NameOf(a)), err)
	}

	c := &Collected{
		ByDocument: make(map[solution.DocumentID][]taxonomy.Diagnostic, len(raw)),
		Compiler:   sol.Compile().Errors,
	}

	ids := make([]solution.DocumentID, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		doc := sol.Document(id)
		if doc == nil {
			return nil, verifyerr.Newf(verifyerr.Collaborator,
				"analyzer %s reported diagnostics for unknown document %d", NameOf(a), id)
		}
		if len(raw[id]) == 0 {
			continue
		}
		diags := make([]taxonomy.Diagnostic, len(raw[id]))
		copy(diags, raw[id])
		for i := range diags {
			if diags[i].Location.Document == "" {
				diags[i].Location.Document = doc.Name
			}
			if diags[i].Location.Document != doc.Name {
				return nil, verifyerr.Newf(verifyerr.Collaborator,
					"analyzer %s filed a diagnostic located in %s under document %s",
					NameOf(a), diags[i].Location.Document, doc.Name)
			}
		}
		sol.SortDiagnostics(diags)
		c.ByDocument[id] = diags
		c.Analyzer = append(c.Analyzer, diags...)
	}
	return c, nil
}

// All returns the analyzer diagnostics followed by the compiler
// diagnostics.
func (c *Collected) All() []taxonomy.Diagnostic {
	all := make([]taxonomy.Diagnostic, 0, len(c.Analyzer)+len(c.Compiler))
	all = append(all, c.Analyzer...)
	return append(all, c.Compiler...)
}

// WithIDs returns the diagnostics, analyzer and compiler alike, whose
// id is in ids, in document order.
func (c *Collected) WithIDs(ids []string) []taxonomy.Diagnostic {
	var out []taxonomy.Diagnostic
	for _, d := range c.All() {
		if Supports(ids, d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns every diagnostic with error severity.
func (c *Collected) Errors() []taxonomy.Diagnostic {
	var out []taxonomy.Diagnostic
	for _, d := range c.All() {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}
