// Package marker extracts expected-error markers from annotated
// source. A marker is a reserved rune placed immediately before the
// token a diagnostic is expected at. Scanning is a pure string pass;
// it knows nothing about Go syntax.
package marker

import (
	"strings"
	"unicode/utf8"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// DefaultMarker is the rune that indicates an expected error position.
const DefaultMarker = '↓'

// Located is a marker position inside one of several sources.
type Located struct {
	// Document is the index of the source the marker was found in.
	Document int `json:"document"`

	// Position is the zero-based line and byte column in the cleaned
	// source.
	Position taxonomy.Position `json:"position"`
}

// Strip removes every marker from source and returns the cleaned text
// together with one position per marker, in source order. Columns are
// measured in the cleaned line, so a second marker on a line is not
// shifted by the first. utf8.RuneError is never a marker, so invalid
// UTF-8 bytes pass through unchanged.
func Strip(marker rune, source string) (string, []taxonomy.Position) {
	if marker == utf8.RuneError || !strings.ContainsRune(source, marker) {
		return source, nil
	}

	var (
		b         strings.Builder
		positions []taxonomy.Position
		line      int
		lineStart int
	)
	b.Grow(len(source))

	for i := 0; i < len(source); {
		r, size := utf8.DecodeRuneInString(source[i:])
		switch r {
		case marker:
			positions = append(positions, taxonomy.Position{
				Line:   line,
				Column: b.Len() - lineStart,
			})
		case '\n':
			b.WriteRune(r)
			line++
			lineStart = b.Len()
		default:
			b.WriteString(source[i : i+size])
		}
		i += size
	}

	return b.String(), positions
}

// Parse strips markers from every source. It returns the cleaned
// sources in input order and the marker positions in document order,
// then source order within a document.
func Parse(marker rune, sources ...string) ([]string, []Located) {
	cleaned := make([]string, len(sources))
	var located []Located
	for i, src := range sources {
		text, positions := Strip(marker, src)
		cleaned[i] = text
		for _, p := range positions {
			located = append(located, Located{Document: i, Position: p})
		}
	}
	return cleaned, located
}

// Single strips the one marker expected in source. It fails with a
// FORMAT error when the source has zero or more than one marker.
func Single(marker rune, source string) (string, taxonomy.Position, error) {
	text, positions := Strip(marker, source)
	if len(positions) != 1 {
		return "", taxonomy.Position{}, verifyerr.Newf(verifyerr.Format,
			"expected code to have exactly one error position indicated with '%c', found %d",
			marker, len(positions))
	}
	return text, positions[0], nil
}

// Count returns the number of markers in source.
func Count(marker rune, source string) int {
	return strings.Count(source, string(marker))
}

// Has reports whether any of the sources contain a marker.
func Has(marker rune, sources ...string) bool {
	if marker == utf8.RuneError {
		return false
	}
	for _, src := range sources {
		if strings.ContainsRune(src, marker) {
			return true
		}
	}
	return false
}
