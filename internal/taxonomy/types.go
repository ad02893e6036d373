// Package taxonomy defines the diagnostic data model, fix records,
// and stable ID generation shared by every fixcheck package.
package taxonomy

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity is the severity of a diagnostic.
type Severity string

// Severity levels, ordered from least to most severe.
const (
	SeverityHidden  Severity = "hidden"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Compiler diagnostic identifiers. These are reported by the program
// model builder, not by analyzers.
const (
	SyntaxID    = "syntax"
	TypeCheckID = "typecheck"
	ReferenceID = "reference"
)

// Position is a zero-based line and byte column inside one document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String renders the position one-based, the way Go tools print it.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Less orders positions by line, then column.
func (p Position) Less(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Location is a span inside a named document.
type Location struct {
	// Document is the document name (e.g. "a.go").
	Document string `json:"document"`

	// Start and End are byte offsets into the document text.
	Start int `json:"start"`
	End   int `json:"end"`

	// Position is the zero-based line/column of Start.
	Position Position `json:"position"`
}

// String renders the location as document:line:col.
func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Document, l.Position)
}

// TextEdit replaces the byte range [Start, End) of a document with
// NewText.
type TextEdit struct {
	Document string `json:"document"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	NewText  string `json:"new_text"`
}

// SuggestedFix is a titled set of edits attached to a diagnostic by
// the analyzer that produced it.
type SuggestedFix struct {
	Title string     `json:"title"`
	Edits []TextEdit `json:"edits"`
}

// Diagnostic is one finding reported by an analyzer or the compiler.
// It is read-only once produced.
type Diagnostic struct {
	// ID is the stable diagnostic identifier (e.g. "SA1309").
	ID string `json:"id"`

	// Severity is the reported severity.
	Severity Severity `json:"severity"`

	// Message is the formatted diagnostic message.
	Message string `json:"message"`

	// Location is the primary location. Every diagnostic has exactly
	// one.
	Location Location `json:"location"`

	// AdditionalLocations lists related locations, if any.
	AdditionalLocations []Location `json:"additional_locations,omitempty"`

	// Fixes holds the suggested fixes carried by the diagnostic.
	// Providers may ignore them and compute their own actions.
	Fixes []SuggestedFix `json:"-"`
}

// String renders the diagnostic the way compilers do:
// "a.go:3:7: SA1309 warning: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.ID, d.Severity, d.Message)
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// FormatDiagnostics renders a diagnostic list one per line, indented.
// An empty list renders as "(none)".
func FormatDiagnostics(diags []Diagnostic) string {
	if len(diags) == 0 {
		return "  (none)"
	}
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, "  "+d.String())
	}
	return strings.Join(lines, "\n")
}

// FixApplication records one application of a code action: which
// diagnostics it fixed, which provider and action produced the edit,
// and which documents changed. Batch mode produces one per iteration.
type FixApplication struct {
	// Iteration is the 1-based fix-all iteration; 1 in single-fix mode.
	Iteration int `json:"iteration"`

	// Diagnostics are the diagnostics the action was requested for.
	Diagnostics []Diagnostic `json:"diagnostics"`

	// Provider names the transformation provider.
	Provider string `json:"provider"`

	// Action is the title of the applied code action.
	Action string `json:"action"`

	// ChangedDocuments lists the names of documents whose text changed.
	ChangedDocuments []string `json:"changed_documents"`
}

// Mode is the kind of verification that was run.
type Mode string

// Verification modes.
const (
	ModeValid       Mode = "valid"
	ModeDiagnostics Mode = "diagnostics"
	ModeFix         Mode = "fix"
	ModeFixAll      Mode = "fixall"
	ModeNoFix       Mode = "nofix"
)

// Failure is the structured form of a verification error.
type Failure struct {
	// Kind is the failure category (see package verifyerr).
	Kind string `json:"kind"`

	// Message is the full human-readable explanation.
	Message string `json:"message"`
}

// Metadata holds verification run metadata.
type Metadata struct {
	Version   string        `json:"version"`
	GoVersion string        `json:"go_version"`
	Timestamp time.Time     `json:"-"`
	Duration  time.Duration `json:"-"`
}

// MarshalJSON customizes JSON encoding to use duration_ms and
// ISO 8601 timestamp.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type Alias Metadata
	ts := ""
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(&struct {
		Alias
		DurationMS int64  `json:"duration_ms"`
		Timestamp  string `json:"timestamp,omitempty"`
	}{
		Alias:      Alias(m),
		DurationMS: m.Duration.Milliseconds(),
		Timestamp:  ts,
	})
}

// VerificationResult is the outcome of one verification entry point.
type VerificationResult struct {
	// ID is a stable identifier derived from the case name and mode.
	ID string `json:"id"`

	// Name identifies the case (file name or caller-supplied label).
	Name string `json:"name"`

	// Mode is the verification that was run.
	Mode Mode `json:"mode"`

	// Analyzer names the analyzer under test.
	Analyzer string `json:"analyzer"`

	// Passed is true when the verification succeeded.
	Passed bool `json:"passed"`

	// Failure is set when Passed is false.
	Failure *Failure `json:"failure,omitempty"`

	// Diagnostics are the actual diagnostics collected on the input.
	Diagnostics []Diagnostic `json:"diagnostics"`

	// Fixes is the chain of fix applications, oldest first.
	Fixes []FixApplication `json:"fixes"`

	// Metadata contains run information.
	Metadata Metadata `json:"metadata"`
}

// GenerateID produces a stable, deterministic ID for a verification
// result. The ID is a sha256 hash truncated to 8 hex characters,
// prefixed with "vr-".
func GenerateID(name string, mode Mode, analyzer string) string {
	input := fmt.Sprintf("%s:%s:%s", name, mode, analyzer)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("vr-%x", hash[:4])
}
