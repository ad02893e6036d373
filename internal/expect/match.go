package expect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/unbound-force/fixcheck/internal/analysis"
	"github.com/unbound-force/fixcheck/internal/codeassert"
	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// Pair is an expected entry matched with the actual diagnostic it was
// paired with.
type Pair struct {
	Expected Entry
	Actual   taxonomy.Diagnostic
}

// Match reconciles expected entries with actual diagnostics. Only
// actual diagnostics whose id is in supported take part.
//
// The checks run in order: counts per document and in total, then
// duplicate positions, then per identifier the pairing, then for each
// pair the position and the message. The first failure is returned.
//
// Pairing takes positioned entries at their exact location first. The
// remaining positioned entries, then the positionless ones, take the
// leftover diagnostics in ascending (document, line, column) order.
func Match(sol *solution.Solution, supported []string, entries []Entry, actual []taxonomy.Diagnostic) ([]Pair, error) {
	var relevant []taxonomy.Diagnostic
	for _, d := range actual {
		if analysis.Supports(supported, d.ID) {
			relevant = append(relevant, d)
		}
	}

	if err := checkCounts(sol, entries, relevant); err != nil {
		return nil, err
	}
	if err := checkDuplicates(relevant); err != nil {
		return nil, err
	}

	byID := make(map[string][]Entry)
	var ids []string
	for _, e := range entries {
		if _, seen := byID[e.ID]; !seen {
			ids = append(ids, e.ID)
		}
		byID[e.ID] = append(byID[e.ID], e)
	}
	actualByID := make(map[string][]taxonomy.Diagnostic)
	for _, d := range relevant {
		actualByID[d.ID] = append(actualByID[d.ID], d)
	}

	var pairs []Pair
	for _, id := range ids {
		exp, act := byID[id], actualByID[id]
		if len(exp) != len(act) {
			return nil, mismatch(sol, fmt.Sprintf("Expected %d diagnostics with id %s, found %d.", len(exp), id, len(act)),
				entries, relevant)
		}
		pairs = append(pairs, pairID(sol, exp, act)...)
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return lessDiagnostic(sol, pairs[i].Actual, pairs[j].Actual)
	})

	for _, p := range pairs {
		if err := checkPosition(sol, p); err != nil {
			return nil, err
		}
	}
	for _, p := range pairs {
		if p.Expected.Message != "" && p.Expected.Message != p.Actual.Message {
			return nil, verifyerr.Newf(verifyerr.MessageMismatch,
				"Expected and actual messages do not match for %s at %s.\nExpected: %s\nActual:   %s",
				p.Actual.ID, p.Actual.Location, p.Expected.Message, p.Actual.Message)
		}
	}
	return pairs, nil
}

func checkCounts(sol *solution.Solution, entries []Entry, actual []taxonomy.Diagnostic) error {
	if len(entries) != len(actual) {
		return mismatch(sol, fmt.Sprintf("Expected %d diagnostics, found %d.", len(entries), len(actual)),
			entries, actual)
	}

	want := make(map[string]int)
	wildcards := 0
	for _, e := range entries {
		if e.HasPosition {
			want[documentName(sol, e.Document)]++
		} else {
			wildcards++
		}
	}
	if len(want) == 0 {
		return nil
	}
	got := make(map[string]int)
	for _, d := range actual {
		got[d.Location.Document]++
	}
	for _, doc := range sol.Documents() {
		w, g := want[doc.Name], got[doc.Name]
		switch {
		case wildcards == 0 && w != g:
			return mismatch(sol, fmt.Sprintf("Expected %d diagnostics in %s, found %d.", w, doc.Name, g),
				entries, actual)
		case wildcards > 0 && g < w:
			// Positionless entries may land in any document, so only a
			// shortfall is detectable here.
			return mismatch(sol, fmt.Sprintf("Expected at least %d diagnostics in %s, found %d.", w, doc.Name, g),
				entries, actual)
		}
	}
	return nil
}

func checkDuplicates(actual []taxonomy.Diagnostic) error {
	type key struct {
		id  string
		doc string
		pos taxonomy.Position
	}
	seen := make(map[key]bool, len(actual))
	for _, d := range actual {
		k := key{d.ID, d.Location.Document, d.Location.Position}
		if seen[k] {
			return verifyerr.Newf(verifyerr.AmbiguousPosition,
				"The analyzer reported more than one %s diagnostic at %s; positions must be unique per id.",
				d.ID, d.Location)
		}
		seen[k] = true
	}
	return nil
}

func checkPosition(sol *solution.Solution, p Pair) error {
	if !p.Expected.HasPosition {
		return nil
	}
	name := documentName(sol, p.Expected.Document)
	loc := p.Actual.Location
	if name == loc.Document && p.Expected.Position == loc.Position {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Expected %s at %s:%s, found it at %s.\n", p.Actual.ID, name, p.Expected.Position, loc)
	if name == loc.Document {
		line := lineOf(sol, name, p.Expected.Position.Line)
		fmt.Fprintf(&b, "%s:%d: %s\n", name, p.Expected.Position.Line+1, line)
		fmt.Fprintf(&b, "Expected: %s\n", codeassert.Caret(line, p.Expected.Position.Column))
		if loc.Position.Line == p.Expected.Position.Line {
			fmt.Fprintf(&b, "Actual:   %s", codeassert.Caret(line, loc.Position.Column))
		} else {
			actualLine := lineOf(sol, name, loc.Position.Line)
			fmt.Fprintf(&b, "%s:%d: %s\n", name, loc.Position.Line+1, actualLine)
			fmt.Fprintf(&b, "Actual:   %s", codeassert.Caret(actualLine, loc.Position.Column))
		}
	}
	return verifyerr.New(verifyerr.PositionMismatch, strings.TrimRight(b.String(), "\n"))
}

func mismatch(sol *solution.Solution, summary string, entries []Entry, actual []taxonomy.Diagnostic) error {
	var b strings.Builder
	b.WriteString(summary)
	b.WriteString("\nExpected:\n")
	if len(entries) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range entries {
		b.WriteString("  " + describe(sol, e) + "\n")
	}
	b.WriteString("Actual:\n")
	b.WriteString(taxonomy.FormatDiagnostics(actual))
	return verifyerr.New(verifyerr.CountMismatch, b.String())
}

// describe renders an entry with its document name.
func describe(sol *solution.Solution, e Entry) string {
	s := e.ID
	if e.HasPosition {
		s = fmt.Sprintf("%s:%s: %s", documentName(sol, e.Document), e.Position, e.ID)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

func documentName(sol *solution.Solution, doc int) string {
	if d := sol.Document(solution.DocumentID(doc)); d != nil {
		return d.Name
	}
	return fmt.Sprintf("document %d", doc)
}

func lineOf(sol *solution.Solution, name string, line int) string {
	if d := sol.DocumentByName(name); d != nil {
		return d.Line(line)
	}
	return ""
}

func pairID(sol *solution.Solution, exp []Entry, act []taxonomy.Diagnostic) []Pair {
	sortEntries(exp)
	sortDiagnostics(sol, act)

	used := make([]bool, len(act))
	var pairs []Pair
	var rest []Entry
	for _, e := range exp {
		if !e.HasPosition {
			continue
		}
		name := documentName(sol, e.Document)
		found := false
		for i, d := range act {
			if !used[i] && d.Location.Document == name && d.Location.Position == e.Position {
				used[i] = true
				pairs = append(pairs, Pair{Expected: e, Actual: d})
				found = true
				break
			}
		}
		if !found {
			rest = append(rest, e)
		}
	}
	for _, e := range exp {
		if !e.HasPosition {
			rest = append(rest, e)
		}
	}
	i := 0
	for _, e := range rest {
		for used[i] {
			i++
		}
		used[i] = true
		pairs = append(pairs, Pair{Expected: e, Actual: act[i]})
	}
	return pairs
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasPosition != b.HasPosition {
			return a.HasPosition
		}
		if a.Document != b.Document {
			return a.Document < b.Document
		}
		return a.Position.Less(b.Position)
	})
}

func sortDiagnostics(sol *solution.Solution, diags []taxonomy.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return lessDiagnostic(sol, diags[i], diags[j])
	})
}

func lessDiagnostic(sol *solution.Solution, a, b taxonomy.Diagnostic) bool {
	ai, bi := documentIndex(sol, a.Location.Document), documentIndex(sol, b.Location.Document)
	if ai != bi {
		return ai < bi
	}
	return a.Location.Position.Less(b.Location.Position)
}

func documentIndex(sol *solution.Solution, name string) int {
	if d := sol.DocumentByName(name); d != nil {
		return int(d.ID)
	}
	return -1
}
