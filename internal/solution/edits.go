package solution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// ApplyEdits returns a new revision with the edits applied. Edits are
// grouped per document and applied from the end of the text backwards
// so offsets stay valid. Exact duplicate edits are applied once;
// overlapping edits are a conflict and fail the whole call, leaving s
// untouched.
func (s *Solution) ApplyEdits(edits []taxonomy.TextEdit) (*Solution, error) {
	if len(edits) == 0 {
		return s, nil
	}

	byDoc := make(map[DocumentID][]taxonomy.TextEdit)
	for _, e := range edits {
		id, ok := s.byName[e.Document]
		if !ok {
			return nil, fmt.Errorf("edit targets unknown document %q", e.Document)
		}
		byDoc[id] = append(byDoc[id], e)
	}

	texts := make(map[DocumentID]string, len(byDoc))
	for id, docEdits := range byDoc {
		text, err := applyToText(s.docs[id], docEdits)
		if err != nil {
			return nil, err
		}
		if text != s.docs[id].Text {
			texts[id] = text
		}
	}
	if len(texts) == 0 {
		return s, nil
	}
	return s.withTexts(texts), nil
}

func applyToText(d *Document, edits []taxonomy.TextEdit) (string, error) {
	edits = dedupeEdits(edits)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start == edits[j].Start {
			return edits[i].End > edits[j].End
		}
		return edits[i].Start > edits[j].Start
	})

	for i, e := range edits {
		if e.Start < 0 || e.End < e.Start || e.End > len(d.Text) {
			return "", fmt.Errorf("edit [%d,%d) out of range for %s (length %d)",
				e.Start, e.End, d.Name, len(d.Text))
		}
		if i > 0 && spansConflict(e, edits[i-1]) {
			return "", fmt.Errorf("conflicting edits in %s at [%d,%d) and [%d,%d)",
				d.Name, e.Start, e.End, edits[i-1].Start, edits[i-1].End)
		}
	}

	text := d.Text
	for _, e := range edits {
		text = text[:e.Start] + e.NewText + text[e.End:]
	}
	return text, nil
}

func dedupeEdits(edits []taxonomy.TextEdit) []taxonomy.TextEdit {
	seen := make(map[taxonomy.TextEdit]bool, len(edits))
	out := make([]taxonomy.TextEdit, 0, len(edits))
	for _, e := range edits {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// spansConflict reports whether two edits overlap. Spans are half-open
// [Start, End). Two insertions at the same offset conflict because
// their relative order would be arbitrary; an insertion strictly
// inside a replaced span conflicts; touching spans do not.
func spansConflict(a, b taxonomy.TextEdit) bool {
	if a.Document != b.Document {
		return false
	}
	aEmpty, bEmpty := a.Start == a.End, b.Start == b.End
	switch {
	case aEmpty && bEmpty:
		return a.Start == b.Start
	case aEmpty:
		return a.Start > b.Start && a.Start < b.End
	case bEmpty:
		return b.Start > a.Start && b.Start < a.End
	default:
		return a.Start < b.End && b.Start < a.End
	}
}

// EditsConflict reports whether any edit in a overlaps any edit in b.
// Identical edits do not conflict.
func EditsConflict(a, b []taxonomy.TextEdit) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				continue
			}
			if spansConflict(x, y) {
				return true
			}
		}
	}
	return false
}

// MergeEdits combines edit sets computed against the same revision.
// Sets are accepted in order; a set that conflicts with an already
// accepted one is skipped entirely. It returns the merged edits and
// the indexes of the skipped sets.
func MergeEdits(sets [][]taxonomy.TextEdit) ([]taxonomy.TextEdit, []int) {
	var (
		merged  []taxonomy.TextEdit
		skipped []int
	)
	for i, set := range sets {
		if EditsConflict(merged, set) || EditsConflict(set, set) {
			skipped = append(skipped, i)
			continue
		}
		merged = append(merged, set...)
	}
	return merged, skipped
}

// DiffEdits computes, for every document whose text differs between
// base and changed, one edit replacing the differing middle region
// (common prefix and suffix are preserved). Both revisions must have
// the same document names.
func DiffEdits(base, changed *Solution) ([]taxonomy.TextEdit, error) {
	if len(base.docs) != len(changed.docs) {
		return nil, fmt.Errorf("action changed the document set (%d -> %d documents)",
			len(base.docs), len(changed.docs))
	}
	var edits []taxonomy.TextEdit
	for _, d := range base.docs {
		o := changed.DocumentByName(d.Name)
		if o == nil {
			return nil, fmt.Errorf("action removed document %q", d.Name)
		}
		if o.Text == d.Text {
			continue
		}
		edits = append(edits, minimalEdit(d.Name, d.Text, o.Text))
	}
	return edits, nil
}

func minimalEdit(name, before, after string) taxonomy.TextEdit {
	prefix := commonPrefixLen(before, after)
	maxSuffix := min(len(before), len(after)) - prefix
	suffix := commonSuffixLen(before[prefix:], after[prefix:])
	if suffix > maxSuffix {
		suffix = maxSuffix
	}
	return taxonomy.TextEdit{
		Document: name,
		Start:    prefix,
		End:      len(before) - suffix,
		NewText:  after[prefix : len(after)-suffix],
	}
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func commonSuffixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[len(a)-1-i] != b[len(b)-1-i] {
			return i
		}
	}
	return n
}

// FormatEdits renders edits for failure messages.
func FormatEdits(edits []taxonomy.TextEdit) string {
	parts := make([]string, 0, len(edits))
	for _, e := range edits {
		parts = append(parts, fmt.Sprintf("%s[%d,%d)=%q", e.Document, e.Start, e.End, e.NewText))
	}
	return strings.Join(parts, ", ")
}
