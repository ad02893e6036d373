package casefile_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unbound-force/fixcheck/internal/casefile"
	"github.com/unbound-force/fixcheck/internal/config"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// casesFixture returns the absolute path to the fixture cases.
func casesFixture(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("testdata/cases")
	if err != nil {
		t.Fatalf("resolving fixture path: %v", err)
	}
	return abs
}

func relNames(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var out []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel(%q): %v", p, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// TestDiscover_DefaultConfig verifies that the default config skips
// vendor/, hidden directories and non-case files.
func TestDiscover_DefaultConfig(t *testing.T) {
	root := casesFixture(t)
	paths, err := casefile.Discover(context.Background(), root, config.DefaultConfig())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	got := strings.Join(relNames(t, root, paths), ",")
	want := "diagnostics.txtar,fix/fixall.txtar,fix/rename.txtar,valid.txtar"
	if got != want {
		t.Errorf("Discover() = %s, want %s", got, want)
	}
}

// TestDiscover_NoExcludes verifies that an empty exclude list finds
// vendored cases.
func TestDiscover_NoExcludes(t *testing.T) {
	root := casesFixture(t)
	paths, err := casefile.Discover(context.Background(), root, &config.FixcheckConfig{})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(paths) != 5 {
		t.Errorf("expected 5 cases, got %d: %v", len(paths), relNames(t, root, paths))
	}
}

// TestDiscover_Include verifies that include patterns limit the walk.
func TestDiscover_Include(t *testing.T) {
	root := casesFixture(t)
	cfg := config.DefaultConfig()
	cfg.Cases.Include = []string{"fix/**"}

	paths, err := casefile.Discover(context.Background(), root, cfg)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 cases, got %v", relNames(t, root, paths))
	}
}

// TestDiscover_Canceled verifies that a canceled context stops the
// walk with an error.
func TestDiscover_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := casefile.Discover(ctx, casesFixture(t), nil); err == nil {
		t.Fatal("expected error from canceled discovery")
	}
}

// TestFilter covers include overrides and exclude patterns.
func TestFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cases.Exclude = append(cfg.Cases.Exclude, "slow_*.txtar")

	tests := []struct {
		rel  string
		want bool
	}{
		{"a.txtar", true},
		{"vendor/x/a.txtar", false},
		{"vendor", false},
		{"vendored/a.txtar", true},
		{"slow_big.txtar", false},
		{"sub/slow_big.txtar", false},
	}
	for _, tt := range tests {
		if got := casefile.Filter(tt.rel, cfg); got != tt.want {
			t.Errorf("Filter(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	cfg.Cases.Include = []string{"fix/*"}
	if casefile.Filter("a.txtar", cfg) {
		t.Error("Filter should reject paths outside the include patterns")
	}
	if !casefile.Filter("fix/a.txtar", cfg) {
		t.Error("Filter should accept paths matching an include pattern")
	}
}

func TestParse_DefaultsMode(t *testing.T) {
	c, err := casefile.Parse("x.txtar", []byte("analyzer: underscore\n-- a.go --\npackage a\n-- a.go.golden --\npackage a\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.Header.Mode != taxonomy.ModeFix {
		t.Errorf("Mode = %q, want %q", c.Header.Mode, taxonomy.ModeFix)
	}
	if len(c.Sources) != 1 || c.Sources[0].Name != "a.go" {
		t.Errorf("Sources = %+v", c.Sources)
	}
	if c.Golden["a.go"] != "package a\n" {
		t.Errorf("Golden[a.go] = %q", c.Golden["a.go"])
	}

	c, err = casefile.Parse("y.txtar", []byte("analyzer: underscore\n-- a.go --\npackage a\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if c.Header.Mode != taxonomy.ModeDiagnostics {
		t.Errorf("Mode = %q, want %q", c.Header.Mode, taxonomy.ModeDiagnostics)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"no analyzer", "-- a.go --\npackage a\n", "missing analyzer"},
		{"no sources", "analyzer: underscore\n", "no .go sources"},
		{"bad mode", "analyzer: underscore\nmode: sideways\n-- a.go --\npackage a\n", "unknown mode"},
		{"unknown key", "analyzer: underscore\ncolour: red\n-- a.go --\npackage a\n", "parsing header"},
		{"orphan golden", "analyzer: underscore\n-- a.go --\npackage a\n-- b.go.golden --\npackage a\n", "no matching source"},
		{"stray file", "analyzer: underscore\n-- a.go --\npackage a\n-- notes.txt --\nhi\n", "unexpected file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := casefile.Parse("x.txtar", []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

// TestRun_Fixtures runs every discovered fixture case; all of them
// are expected to pass.
func TestRun_Fixtures(t *testing.T) {
	root := casesFixture(t)
	paths, err := casefile.Discover(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			c, err := casefile.Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			res, err := casefile.Run(context.Background(), c, casefile.RunOptions{})
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if !res.Passed {
				t.Errorf("case %s did not pass: %+v", path, res.Failure)
			}
			if res.Mode != c.Header.Mode {
				t.Errorf("Mode = %q, want %q", res.Mode, c.Header.Mode)
			}
		})
	}
}

func TestRun_WrongMessage(t *testing.T) {
	data := "analyzer: underscore\nmessage: wrong\n-- a.go --\npackage a\n\nvar \u2193_x = 1\n"
	c, err := casefile.Parse("wrong.txtar", []byte(data))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	res, err := casefile.Run(context.Background(), c, casefile.RunOptions{})
	if !verifyerr.IsKind(err, verifyerr.MessageMismatch) {
		t.Fatalf("Run() error = %v, want MESSAGE_MISMATCH", err)
	}
	if res == nil || res.Passed || res.Name != "wrong.txtar" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRun_UnknownAnalyzer(t *testing.T) {
	c, err := casefile.Parse("x.txtar", []byte("analyzer: nope\n-- a.go --\npackage a\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if _, err := casefile.Run(context.Background(), c, casefile.RunOptions{}); err == nil {
		t.Fatal("expected error for unknown analyzer")
	}
}

func TestRun_FixWithoutProvider(t *testing.T) {
	c, err := casefile.Parse("x.txtar", []byte("analyzer: cyclo\nmode: fix\n-- a.go --\npackage a\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	_, err = casefile.Run(context.Background(), c, casefile.RunOptions{})
	if err == nil || !strings.Contains(err.Error(), "offers no fixes") {
		t.Fatalf("Run() error = %v, want offers no fixes", err)
	}
}
