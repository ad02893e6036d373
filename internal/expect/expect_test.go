package expect_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/fixcheck/internal/expect"
	"github.com/unbound-force/fixcheck/internal/marker"
	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

func pos(line, col int) taxonomy.Position {
	return taxonomy.Position{Line: line, Column: col}
}

func TestNew_Builders(t *testing.T) {
	e := expect.New("SA1309").WithMessage("m").At(2, 4).AtDocument(1, 0, 3)
	want := expect.Expected{
		ID:      "SA1309",
		Message: "m",
		Positions: []marker.Located{
			{Document: 0, Position: pos(2, 4)},
			{Document: 1, Position: pos(0, 3)},
		},
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("builder mismatch (-want +got):\n%s", diff)
	}
}

func TestAt_DoesNotAlias(t *testing.T) {
	base := expect.New("X").At(0, 0)
	a := base.At(1, 1)
	b := base.At(2, 2)
	if a.Positions[1] == b.Positions[1] {
		t.Error("derived expectations share their position slice")
	}
}

func TestFromAnnotated(t *testing.T) {
	e, cleaned := expect.FromAnnotatedWithMessage("SA1309", "msg", marker.DefaultMarker,
		"package p\n\nvar ↓_a int\n", "package p\n\nvar ↓_b, ↓_c int\n")
	if cleaned[1] != "package p\n\nvar _b, _c int\n" {
		t.Errorf("cleaned = %q", cleaned[1])
	}
	want := []marker.Located{
		{Document: 0, Position: pos(2, 4)},
		{Document: 1, Position: pos(2, 4)},
		{Document: 1, Position: pos(2, 8)},
	}
	if diff := cmp.Diff(want, e.Positions); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}
	if e.Message != "msg" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestNormalize(t *testing.T) {
	markers := []marker.Located{
		{Document: 0, Position: pos(1, 2)},
		{Document: 0, Position: pos(3, 4)},
	}

	cases := []struct {
		name      string
		supported []string
		expected  []expect.Expected
		markers   []marker.Located
		want      []expect.Entry
		wantKind  verifyerr.Kind
	}{
		{
			name:      "markers only",
			supported: []string{"A"},
			markers:   markers,
			want: []expect.Entry{
				{ID: "A", Position: pos(1, 2), HasPosition: true},
				{ID: "A", Position: pos(3, 4), HasPosition: true},
			},
		},
		{
			name:      "one expectation takes every marker",
			supported: []string{"A", "B"},
			expected:  []expect.Expected{expect.New("B").WithMessage("m")},
			markers:   markers,
			want: []expect.Entry{
				{ID: "B", Message: "m", Position: pos(1, 2), HasPosition: true},
				{ID: "B", Message: "m", Position: pos(3, 4), HasPosition: true},
			},
		},
		{
			name:      "several expectations take one marker each",
			supported: []string{"A"},
			expected:  []expect.Expected{expect.New("A").WithMessage("first"), expect.New("A").WithMessage("second")},
			markers:   markers,
			want: []expect.Entry{
				{ID: "A", Message: "first", Position: pos(1, 2), HasPosition: true},
				{ID: "A", Message: "second", Position: pos(3, 4), HasPosition: true},
			},
		},
		{
			name:      "no markers, no positions",
			supported: []string{"A"},
			expected:  []expect.Expected{expect.New("")},
			want:      []expect.Entry{{ID: "A"}},
		},
		{
			name:      "missing id with several supported",
			supported: []string{"A", "B"},
			expected:  []expect.Expected{expect.New("")},
			wantKind:  verifyerr.Ambiguity,
		},
		{
			name:      "markers only with several supported",
			supported: []string{"A", "B"},
			markers:   markers,
			wantKind:  verifyerr.Ambiguity,
		},
		{
			name:      "unsupported id",
			supported: []string{"A"},
			expected:  []expect.Expected{expect.New("Z")},
			wantKind:  verifyerr.UnsupportedID,
		},
		{
			name:      "explicit positions disagree with markers",
			supported: []string{"A"},
			expected:  []expect.Expected{expect.New("A").At(1, 2)},
			markers:   markers,
			wantKind:  verifyerr.Format,
		},
		{
			name:      "three positionless for two markers",
			supported: []string{"A"},
			expected:  []expect.Expected{expect.New("A"), expect.New("A"), expect.New("A")},
			markers:   markers,
			wantKind:  verifyerr.Format,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := expect.Normalize(tc.supported, tc.expected, tc.markers)
			if tc.wantKind != "" {
				if !verifyerr.IsKind(err, tc.wantKind) {
					t.Fatalf("expected %s error, got %v", tc.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("entries (-want +got):\n%s", diff)
			}
		})
	}
}

const twoFields = "package p\n\ntype C struct {\n\t_a int\n\t_b int\n}\n"

func buildSolution(t *testing.T, texts ...string) *solution.Solution {
	t.Helper()
	sources := make([]solution.Source, len(texts))
	for i, text := range texts {
		sources[i] = solution.Source{Text: text}
	}
	sol, err := solution.Build(context.Background(), sources, nil, solution.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return sol
}

func diag(sol *solution.Solution, doc int, p taxonomy.Position, id, msg string) taxonomy.Diagnostic {
	d := sol.Document(solution.DocumentID(doc))
	off, ok := d.Offset(p)
	if !ok {
		panic("position out of range")
	}
	return taxonomy.Diagnostic{
		ID:       id,
		Severity: taxonomy.SeverityWarning,
		Message:  msg,
		Location: taxonomy.Location{Document: d.Name, Start: off, End: off, Position: p},
	}
}

func TestMatch_PairsByAscendingPosition(t *testing.T) {
	sol := buildSolution(t, twoFields)
	// Reported out of order on purpose.
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(4, 1), "SA1309", "Field '_b' must not begin with an underscore"),
		diag(sol, 0, pos(3, 1), "SA1309", "Field '_a' must not begin with an underscore"),
		diag(sol, 0, pos(3, 1), "OTHER", "ignored, not supported"),
	}
	entries := []expect.Entry{
		{ID: "SA1309", Message: "Field '_a' must not begin with an underscore", Position: pos(3, 1), HasPosition: true},
		{ID: "SA1309", Message: "Field '_b' must not begin with an underscore", Position: pos(4, 1), HasPosition: true},
	}
	pairs, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(pairs) != 2 || pairs[0].Actual.Location.Position != pos(3, 1) {
		t.Errorf("unexpected pairing %+v", pairs)
	}
}

func TestMatch_SwappedMessages(t *testing.T) {
	sol := buildSolution(t, twoFields)
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(3, 1), "SA1309", "Field '_a' must not begin with an underscore"),
		diag(sol, 0, pos(4, 1), "SA1309", "Field '_b' must not begin with an underscore"),
	}
	entries := []expect.Entry{
		{ID: "SA1309", Message: "Field '_b' must not begin with an underscore", Position: pos(3, 1), HasPosition: true},
		{ID: "SA1309", Message: "Field '_a' must not begin with an underscore", Position: pos(4, 1), HasPosition: true},
	}
	_, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if !verifyerr.IsKind(err, verifyerr.MessageMismatch) {
		t.Fatalf("expected MESSAGE_MISMATCH, got %v", err)
	}
	want := "MESSAGE_MISMATCH: Expected and actual messages do not match for SA1309 at file0.go:4:2.\n" +
		"Expected: Field '_b' must not begin with an underscore\n" +
		"Actual:   Field '_a' must not begin with an underscore"
	if diff := cmp.Diff(want, err.Error()); diff != "" {
		t.Errorf("message (-want +got):\n%s", diff)
	}
}

func TestMatch_CountMismatchListsBothSets(t *testing.T) {
	sol := buildSolution(t, twoFields)
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(3, 1), "SA1309", "a"),
	}
	entries := []expect.Entry{
		{ID: "SA1309", Position: pos(3, 1), HasPosition: true},
		{ID: "SA1309", Position: pos(4, 1), HasPosition: true},
	}
	_, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if !verifyerr.IsKind(err, verifyerr.CountMismatch) {
		t.Fatalf("expected COUNT_MISMATCH, got %v", err)
	}
	want := "COUNT_MISMATCH: Expected 2 diagnostics, found 1.\n" +
		"Expected:\n" +
		"  file0.go:4:2: SA1309\n" +
		"  file0.go:5:2: SA1309\n" +
		"Actual:\n" +
		"  file0.go:4:2: SA1309 warning: a"
	if diff := cmp.Diff(want, err.Error()); diff != "" {
		t.Errorf("message (-want +got):\n%s", diff)
	}
}

func TestMatch_CountPerDocument(t *testing.T) {
	sol := buildSolution(t, twoFields, twoFields)
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(3, 1), "SA1309", "a"),
		diag(sol, 0, pos(4, 1), "SA1309", "b"),
	}
	entries := []expect.Entry{
		{ID: "SA1309", Document: 0, Position: pos(3, 1), HasPosition: true},
		{ID: "SA1309", Document: 1, Position: pos(3, 1), HasPosition: true},
	}
	_, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if !verifyerr.IsKind(err, verifyerr.CountMismatch) {
		t.Fatalf("expected COUNT_MISMATCH, got %v", err)
	}
}

func TestMatch_AmbiguousPosition(t *testing.T) {
	sol := buildSolution(t, twoFields)
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(3, 1), "SA1309", "a"),
		diag(sol, 0, pos(3, 1), "SA1309", "a again"),
	}
	entries := []expect.Entry{{ID: "SA1309"}, {ID: "SA1309"}}
	_, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if !verifyerr.IsKind(err, verifyerr.AmbiguousPosition) {
		t.Fatalf("expected AMBIGUOUS_POSITION, got %v", err)
	}
}

func TestMatch_PositionMismatchShowsCaret(t *testing.T) {
	sol := buildSolution(t, "package p\n\nvar x, _y int\n")
	actual := []taxonomy.Diagnostic{diag(sol, 0, pos(2, 7), "SA1309", "m")}
	entries := []expect.Entry{{ID: "SA1309", Position: pos(2, 4), HasPosition: true}}

	_, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if !verifyerr.IsKind(err, verifyerr.PositionMismatch) {
		t.Fatalf("expected POSITION_MISMATCH, got %v", err)
	}
	want := "POSITION_MISMATCH: Expected SA1309 at file0.go:3:5, found it at file0.go:3:8.\n" +
		"file0.go:3: var x, _y int\n" +
		"Expected:     ^\n" +
		"Actual:          ^"
	if diff := cmp.Diff(want, err.Error()); diff != "" {
		t.Errorf("message (-want +got):\n%s", diff)
	}
}

func TestMatch_UnpositionedEntriesCheckCountAndMessage(t *testing.T) {
	sol := buildSolution(t, twoFields)
	actual := []taxonomy.Diagnostic{diag(sol, 0, pos(3, 1), "SA1309", "m")}
	if _, err := expect.Match(sol, []string{"SA1309"}, []expect.Entry{{ID: "SA1309", Message: "m"}}, actual); err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	_, err := expect.Match(sol, []string{"SA1309"}, []expect.Entry{{ID: "SA1309", Message: "other"}}, actual)
	if !verifyerr.IsKind(err, verifyerr.MessageMismatch) {
		t.Fatalf("expected MESSAGE_MISMATCH, got %v", err)
	}
}

func TestMatch_NothingExpectedNothingFound(t *testing.T) {
	sol := buildSolution(t, "package p\n")
	if _, err := expect.Match(sol, []string{"A"}, nil, nil); err != nil {
		t.Fatalf("Match failed: %v", err)
	}
}

func TestMatch_MixedPositionedAndPositionless(t *testing.T) {
	sol := buildSolution(t, twoFields)
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(3, 1), "SA1309", "m3"),
		diag(sol, 0, pos(4, 1), "SA1309", "m4"),
	}
	entries, err := expect.Normalize([]string{"SA1309"}, []expect.Expected{
		expect.New("SA1309").At(4, 1),
		expect.New("SA1309").WithMessage("m3"),
	}, nil)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	pairs, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	for _, p := range pairs {
		if p.Expected.HasPosition && p.Actual.Message != "m4" {
			t.Errorf("positioned entry paired with %q, want m4", p.Actual.Message)
		}
		if !p.Expected.HasPosition && p.Actual.Message != "m3" {
			t.Errorf("positionless entry paired with %q, want m3", p.Actual.Message)
		}
	}
}

func TestMatch_MixedEntriesShortfallInDocument(t *testing.T) {
	sol := buildSolution(t, twoFields, twoFields)
	actual := []taxonomy.Diagnostic{
		diag(sol, 0, pos(3, 1), "SA1309", "a"),
		diag(sol, 0, pos(4, 1), "SA1309", "b"),
	}
	entries := []expect.Entry{
		{ID: "SA1309", Document: 1, Position: pos(3, 1), HasPosition: true},
		{ID: "SA1309"},
	}
	_, err := expect.Match(sol, []string{"SA1309"}, entries, actual)
	if !verifyerr.IsKind(err, verifyerr.CountMismatch) {
		t.Fatalf("expected COUNT_MISMATCH, got %v", err)
	}
	if !strings.Contains(err.Error(), "Expected at least 1 diagnostics in file1.go, found 0.") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
