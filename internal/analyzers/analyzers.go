// Package analyzers is the registry of analyzers fixcheck can run by
// name from case files and the command line.
package analyzers

import (
	"fmt"
	"sort"

	goanalysis "golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/assign"

	"github.com/unbound-force/fixcheck/internal/analysis"
	"github.com/unbound-force/fixcheck/internal/analyzers/cyclo"
	"github.com/unbound-force/fixcheck/internal/analyzers/underscore"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// Entry describes one registered analyzer.
type Entry struct {
	// Name is the registry key.
	Name string

	// Doc is the one-line description.
	Doc string

	// IDs are the diagnostic identifiers the analyzer reports.
	IDs []string

	// Fixable reports whether diagnostics carry suggested fixes.
	Fixable bool

	// Analyzer is the underlying go/analysis analyzer.
	Analyzer *goanalysis.Analyzer

	// Severity is the severity diagnostics are reported with.
	Severity taxonomy.Severity
}

var registry = map[string]Entry{
	"underscore": {
		Name:     "underscore",
		Doc:      underscore.Analyzer.Doc,
		IDs:      []string{underscore.ID},
		Fixable:  true,
		Analyzer: underscore.Analyzer,
		Severity: taxonomy.SeverityWarning,
	},
	"cyclo": {
		Name:     "cyclo",
		Doc:      cyclo.Analyzer.Doc,
		IDs:      []string{cyclo.ID},
		Analyzer: cyclo.Analyzer,
		Severity: taxonomy.SeverityInfo,
	},
	"assign": {
		Name:     "assign",
		Doc:      "detect useless assignments such as x = x",
		IDs:      []string{"assign"},
		Fixable:  true,
		Analyzer: assign.Analyzer,
		Severity: taxonomy.SeverityWarning,
	},
}

// All returns every registered entry sorted by name.
func All() []Entry {
	entries := make([]Entry, 0, len(registry))
	for _, e := range registry {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Lookup returns the entry registered under name.
func Lookup(name string) (Entry, error) {
	e, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("unknown analyzer %q", name)
	}
	return e, nil
}

// Engine returns the entry adapted to the engine's analyzer
// interface.
func (e Entry) Engine() analysis.Analyzer {
	return analysis.FromGoAnalyzer(e.Analyzer, analysis.GoOptions{
		IDs:      e.IDs,
		Severity: e.Severity,
	})
}

// Provider returns the provider that applies the entry's suggested
// fixes, or nil when the analyzer offers none.
func (e Entry) Provider() analysis.Provider {
	if !e.Fixable {
		return nil
	}
	return analysis.SuggestedFixes(e.IDs...)
}
