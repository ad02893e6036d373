package analyzers_test

import (
	"context"
	"testing"

	"github.com/unbound-force/fixcheck/internal/analysis"
	"github.com/unbound-force/fixcheck/internal/analyzers"
	"github.com/unbound-force/fixcheck/internal/solution"
)

func TestAll_SortedByName(t *testing.T) {
	entries := analyzers.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 analyzers, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Name >= entries[i].Name {
			t.Errorf("entries not sorted: %q before %q", entries[i-1].Name, entries[i].Name)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := analyzers.Lookup("nope"); err == nil {
		t.Error("expected error for unknown analyzer")
	}
}

func TestEntry_Provider(t *testing.T) {
	e, err := analyzers.Lookup("cyclo")
	if err != nil {
		t.Fatal(err)
	}
	if e.Provider() != nil {
		t.Error("cyclo offers no fixes")
	}
	e, err = analyzers.Lookup("underscore")
	if err != nil {
		t.Fatal(err)
	}
	if ids := e.Provider().FixableDiagnosticIDs(); len(ids) != 1 || ids[0] != "SA1309" {
		t.Errorf("FixableDiagnosticIDs = %v", ids)
	}
}

func TestEntry_EngineRunsAssign(t *testing.T) {
	e, err := analyzers.Lookup("assign")
	if err != nil {
		t.Fatal(err)
	}
	sol, err := solution.Build(context.Background(), []solution.Source{{
		Name: "a.go",
		Text: "package p\n\nfunc f() {\n\tx := 1\n\tx = x\n\t_ = x\n}\n",
	}}, nil, solution.Options{})
	if err != nil {
		t.Fatal(err)
	}
	c, err := analysis.Collect(context.Background(), e.Engine(), sol)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(c.Analyzer) != 1 {
		t.Fatalf("expected one self-assignment, got %v", c.Analyzer)
	}
	d := c.Analyzer[0]
	if d.ID != "assign" || d.Location.Position.Line != 4 {
		t.Errorf("unexpected diagnostic %v", d)
	}
	if len(d.Fixes) == 0 {
		t.Error("expected a suggested fix removing the assignment")
	}
}
