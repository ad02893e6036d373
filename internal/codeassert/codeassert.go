// Package codeassert compares expected and actual source text while
// ignoring line-ending style, and renders the first divergence as a
// line with a caret under the differing column.
package codeassert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// Diff describes the first divergence between two texts.
type Diff struct {
	// Line is the 1-based line of the divergence.
	Line int

	// Column is the 0-based byte column of the first differing byte
	// within the CR-stripped lines.
	Column int

	// Expected and Actual are the diverging lines, CR-stripped.
	Expected string
	Actual   string

	// EOF is set when one text is a strict prefix of the other.
	EOF bool
}

// Compare walks both texts, skipping carriage returns, and returns the
// first divergence. The second result is true when the texts are
// equal.
func Compare(expected, actual string) (Diff, bool) {
	pos, otherPos, line := 0, 0, 1
	for pos < len(expected) && otherPos < len(actual) {
		if expected[pos] == '\r' {
			pos++
			continue
		}
		if actual[otherPos] == '\r' {
			otherPos++
			continue
		}
		if expected[pos] != actual[otherPos] {
			d := Diff{
				Line:     line,
				Expected: lineAt(expected, line),
				Actual:   lineAt(actual, line),
			}
			d.Column = firstDiff(d.Expected, d.Actual)
			return d, false
		}
		if expected[pos] == '\n' {
			line++
		}
		pos++
		otherPos++
	}

	for pos < len(expected) && expected[pos] == '\r' {
		pos++
	}
	for otherPos < len(actual) && actual[otherPos] == '\r' {
		otherPos++
	}
	if pos == len(expected) && otherPos == len(actual) {
		return Diff{}, true
	}

	d := Diff{
		Line:     line,
		Expected: lineAt(expected, line),
		Actual:   lineAt(actual, line),
		EOF:      true,
	}
	d.Column = firstDiff(d.Expected, d.Actual)
	return d, false
}

// Equal fails with a CODE_MISMATCH error when the texts differ.
func Equal(expected, actual string) error {
	return EqualNamed("", expected, actual)
}

// EqualNamed is Equal with a document name included in the message.
func EqualNamed(name, expected, actual string) error {
	d, ok := Compare(expected, actual)
	if ok {
		return nil
	}
	return verifyerr.New(verifyerr.CodeMismatch, d.Format(name))
}

// Format renders the divergence the way failure messages show it.
func (d Diff) Format(name string) string {
	var b strings.Builder
	where := ""
	if name != "" {
		where = " of file " + name
	}
	if d.EOF {
		fmt.Fprintf(&b, "Mismatch at end of file%s (line %d)\n", where, d.Line)
	} else {
		fmt.Fprintf(&b, "Mismatch on line %d%s\n", d.Line, where)
	}
	fmt.Fprintf(&b, "Expected: %s\n", d.Expected)
	fmt.Fprintf(&b, "Actual:   %s\n", d.Actual)
	fmt.Fprintf(&b, "          %s", Caret(longer(d.Expected, d.Actual), d.Column))
	return b.String()
}

// Caret returns a line that places '^' under byte column col of line.
// Tabs in the prefix are kept so the caret lines up however the
// terminal expands them; other runes are replaced by spaces of the
// same display width.
func Caret(line string, col int) string {
	if col > len(line) {
		col = len(line)
	}
	var b strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			b.WriteRune('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	b.WriteByte('^')
	return b.String()
}

func longer(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}

// lineAt returns the 1-based line n with carriage returns removed, or
// "" past the end.
func lineAt(text string, n int) string {
	lines := strings.Split(text, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.ReplaceAll(lines[n-1], "\r", "")
}

// firstDiff returns the byte index of the first rune at which a and b
// differ, or the length of the shorter one when it is a prefix of the
// other.
func firstDiff(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			for i > 0 && !utf8.RuneStart(a[i]) {
				i--
			}
			return i
		}
	}
	return n
}
