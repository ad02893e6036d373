// Package report provides output formatters for fixcheck verification
// results in JSON and human-readable text formats.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version string                        `json:"version"`
	Summary Summary                       `json:"summary"`
	Results []taxonomy.VerificationResult `json:"results"`
}

// Summary counts passed and failed results.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summarize counts the results.
func Summarize(results []taxonomy.VerificationResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// WriteJSON writes verification results as formatted JSON to the
// writer. Nil slices are written as empty arrays.
func WriteJSON(w io.Writer, results []taxonomy.VerificationResult, version string) error {
	out := make([]taxonomy.VerificationResult, len(results))
	for i, r := range results {
		if r.Diagnostics == nil {
			r.Diagnostics = []taxonomy.Diagnostic{}
		}
		if r.Fixes == nil {
			r.Fixes = []taxonomy.FixApplication{}
		}
		out[i] = r
	}
	report := JSONReport{
		Version: version,
		Summary: Summarize(results),
		Results: out,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
