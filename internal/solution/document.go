package solution

import (
	"strings"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// DocumentID is the index of a document within its solution. IDs are
// stable across revisions because documents are never added or
// removed by edits.
type DocumentID int

// Source is a named source text used to build a solution.
type Source struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text" yaml:"text"`
}

// Document is an immutable named source text. Revisions of a solution
// share *Document values for documents that did not change.
type Document struct {
	ID   DocumentID
	Name string
	Text string
}

// Position converts a byte offset into a zero-based line and column.
// Offsets past the end clamp to the end of the text.
func (d *Document) Position(offset int) taxonomy.Position {
	if offset > len(d.Text) {
		offset = len(d.Text)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := d.Text[:offset]
	line := strings.Count(prefix, "\n")
	col := offset
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		col = offset - i - 1
	}
	return taxonomy.Position{Line: line, Column: col}
}

// Offset converts a zero-based position into a byte offset. The second
// result is false when the position is outside the text.
func (d *Document) Offset(p taxonomy.Position) (int, bool) {
	if p.Line < 0 || p.Column < 0 {
		return 0, false
	}
	start := 0
	for line := 0; line < p.Line; line++ {
		i := strings.IndexByte(d.Text[start:], '\n')
		if i < 0 {
			return 0, false
		}
		start += i + 1
	}
	end := len(d.Text)
	if i := strings.IndexByte(d.Text[start:], '\n'); i >= 0 {
		end = start + i
	}
	if start+p.Column > end {
		return 0, false
	}
	return start + p.Column, true
}

// Line returns the zero-based line n without its line terminator
// (carriage returns are stripped too). Out-of-range lines are "".
func (d *Document) Line(n int) string {
	lines := strings.Split(d.Text, "\n")
	if n < 0 || n >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n], "\r")
}
