// Package expect models expected diagnostics and reconciles them with
// the diagnostics an analyzer actually reported.
package expect

import (
	"github.com/unbound-force/fixcheck/internal/analysis"
	"github.com/unbound-force/fixcheck/internal/marker"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// Expected is one expected diagnostic, possibly at several positions.
type Expected struct {
	// ID is the diagnostic identifier. It may be empty when the
	// analyzer supports exactly one identifier.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Message, when non-empty, must equal the actual message exactly.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Positions are the explicit expected positions. When empty, the
	// positions come from the markers in the annotated sources.
	Positions []marker.Located `json:"positions,omitempty" yaml:"positions,omitempty"`
}

// New returns an expectation for id with no message or position.
func New(id string) Expected {
	return Expected{ID: id}
}

// WithMessage returns a copy of e that also checks the message.
func (e Expected) WithMessage(message string) Expected {
	e.Message = message
	return e
}

// At returns a copy of e with an explicit position in the first
// document. Line and column are zero-based; the column is a byte
// offset.
func (e Expected) At(line, column int) Expected {
	return e.AtDocument(0, line, column)
}

// AtDocument returns a copy of e with an explicit position in the
// given document.
func (e Expected) AtDocument(doc, line, column int) Expected {
	positions := make([]marker.Located, len(e.Positions), len(e.Positions)+1)
	copy(positions, e.Positions)
	e.Positions = append(positions, marker.Located{
		Document: doc,
		Position: taxonomy.Position{Line: line, Column: column},
	})
	return e
}

// FromAnnotated derives an expectation from annotated sources: one
// position per marker. It returns the cleaned sources.
func FromAnnotated(id string, mk rune, sources ...string) (Expected, []string) {
	cleaned, located := marker.Parse(mk, sources...)
	return Expected{ID: id, Positions: located}, cleaned
}

// FromAnnotatedWithMessage is FromAnnotated with a message check.
func FromAnnotatedWithMessage(id, message string, mk rune, sources ...string) (Expected, []string) {
	e, cleaned := FromAnnotated(id, mk, sources...)
	e.Message = message
	return e, cleaned
}

// Entry is one concrete expected diagnostic at no more than one
// position.
type Entry struct {
	ID          string
	Message     string
	Document    int
	Position    taxonomy.Position
	HasPosition bool
}

// Normalize expands expectations into concrete entries.
//
// An empty ID is filled in when supported has exactly one identifier
// and is an AMBIGUITY error otherwise. An ID outside supported is an
// UNSUPPORTED_ID error. Expectations without explicit positions take
// the marker positions: a single such expectation takes all of them,
// several take one marker each in order. When markers are present the
// number of positioned entries in each document must equal the number
// of markers in it, otherwise the run fails with a FORMAT error.
// With no expectations at all, the markers stand for the analyzer's
// only identifier.
func Normalize(supported []string, expected []Expected, markers []marker.Located) ([]Entry, error) {
	if len(expected) == 0 && len(markers) > 0 {
		expected = []Expected{{}}
	}

	var (
		entries      []Entry
		positionless []int
	)
	resolved := make([]Expected, len(expected))
	for i, e := range expected {
		id, err := resolveID(supported, e.ID)
		if err != nil {
			return nil, err
		}
		e.ID = id
		resolved[i] = e
		if len(e.Positions) == 0 {
			positionless = append(positionless, i)
		}
	}

	assigned := make(map[int][]marker.Located, len(positionless))
	switch {
	case len(markers) == 0:
	case len(positionless) == 1:
		assigned[positionless[0]] = markers
	case len(positionless) == len(markers):
		for k, i := range positionless {
			assigned[i] = []marker.Located{markers[k]}
		}
	case len(positionless) > 1:
		return nil, verifyerr.Newf(verifyerr.Format,
			"%d expectations without positions cannot be paired with %d markers",
			len(positionless), len(markers))
	}

	for i, e := range resolved {
		positions := e.Positions
		if len(positions) == 0 {
			positions = assigned[i]
		}
		if len(positions) == 0 {
			entries = append(entries, Entry{ID: e.ID, Message: e.Message})
			continue
		}
		for _, p := range positions {
			entries = append(entries, Entry{
				ID:          e.ID,
				Message:     e.Message,
				Document:    p.Document,
				Position:    p.Position,
				HasPosition: true,
			})
		}
	}

	if len(markers) > 0 {
		if err := checkMarkerCounts(entries, markers); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func resolveID(supported []string, id string) (string, error) {
	if id == "" {
		if len(supported) != 1 {
			return "", verifyerr.Newf(verifyerr.Ambiguity,
				"the analyzer supports multiple diagnostics %v; the expectation must name one", supported)
		}
		return supported[0], nil
	}
	if !analysis.Supports(supported, id) {
		return "", verifyerr.Newf(verifyerr.UnsupportedID,
			"the analyzer does not produce diagnostics with id %q; supported: %v", id, supported)
	}
	return id, nil
}

func checkMarkerCounts(entries []Entry, markers []marker.Located) error {
	want := make(map[int]int)
	for _, m := range markers {
		want[m.Document]++
	}
	got := make(map[int]int)
	for _, e := range entries {
		if e.HasPosition {
			got[e.Document]++
		}
	}
	for doc, n := range want {
		if got[doc] != n {
			return verifyerr.Newf(verifyerr.Format,
				"document %d has %d error position markers but %d expected diagnostics", doc, n, got[doc])
		}
	}
	for doc, n := range got {
		if want[doc] == 0 {
			return verifyerr.Newf(verifyerr.Format,
				"document %d has no error position markers but %d expected diagnostics", doc, n)
		}
	}
	return nil
}
