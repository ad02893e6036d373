package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unbound-force/fixcheck/internal/config"
	"github.com/unbound-force/fixcheck/internal/marker"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.MarkerRune() != '↓' {
		t.Errorf("MarkerRune() = %q, want ↓", cfg.MarkerRune())
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.FixAll.MaxIterations != 16 || cfg.Jobs != 4 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".fixcheck.yaml", `marker: "§"
allow_compilation_errors: true
suppressed_ids: [typecheck]
references:
  - strings
fix_all:
  max_iterations: 3
cases:
  exclude: ["legacy/**"]
  timeout: 5s
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MarkerRune() != '§' {
		t.Errorf("marker = %q", cfg.Marker)
	}
	if !cfg.AllowCompilationErrors || !cfg.Suppressed("typecheck") || cfg.Suppressed("syntax") {
		t.Errorf("unexpected compilation settings: %+v", cfg)
	}
	if cfg.FixAll.MaxIterations != 3 {
		t.Errorf("max_iterations = %d, want 3", cfg.FixAll.MaxIterations)
	}
	if len(cfg.Cases.Exclude) != 1 || cfg.Cases.Exclude[0] != "legacy/**" {
		t.Errorf("exclude = %v", cfg.Cases.Exclude)
	}
	if cfg.Cases.Timeout != 5*time.Second {
		t.Errorf("timeout = %s", cfg.Cases.Timeout)
	}
	// Unset keys keep their defaults.
	if cfg.Jobs != 4 {
		t.Errorf("jobs = %d, want default 4", cfg.Jobs)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".fixcheck.toml", `marker = "#"
jobs = 8
references = ["utf8"]

[fix_all]
max_iterations = 2

[cases]
include = ["testdata/**"]
timeout = "1m"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MarkerRune() != '#' || cfg.Jobs != 8 || cfg.FixAll.MaxIterations != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.References) != 1 || cfg.References[0] != "utf8" {
		t.Errorf("references = %v", cfg.References)
	}
	if cfg.Cases.Timeout != time.Minute {
		t.Errorf("timeout = %s", cfg.Cases.Timeout)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		".fixcheck.yaml": "markr: x\n",
		".fixcheck.toml": "markr = \"x\"\n",
	} {
		path := writeFile(t, dir, name, content)
		if _, err := config.Load(path); err == nil {
			t.Errorf("%s: expected error for unknown key", name)
		}
	}
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"two-rune marker":     "marker: ab\n",
		"space marker":        "marker: \" \"\n",
		"zero iterations":     "fix_all:\n  max_iterations: 0\n",
		"negative jobs":       "jobs: -1\n",
		"bad exclude pattern": "cases:\n  exclude: [\"[\"]\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, ".fixcheck.yaml", content)
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "config file") {
				t.Errorf("error should mention 'config file', got: %s", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoad_EmptyYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".fixcheck.yaml", "")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Marker != "↓" {
		t.Errorf("marker = %q", cfg.Marker)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := config.Find(dir); got != "" {
		t.Errorf("Find on empty dir = %q", got)
	}
	writeFile(t, dir, ".fixcheck.toml", "")
	writeFile(t, dir, ".fixcheck.yaml", "")
	if got := config.Find(dir); filepath.Base(got) != ".fixcheck.yaml" {
		t.Errorf("Find = %q, want .fixcheck.yaml first", got)
	}
}

func TestMarkerRune(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   rune
	}{
		{"default", "↓", '↓'},
		{"custom", "$", '$'},
		{"empty falls back", "", marker.DefaultMarker},
		{"invalid utf8 falls back", "\xff", marker.DefaultMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.FixcheckConfig{Marker: tt.marker}
			if got := cfg.MarkerRune(); got != tt.want {
				t.Errorf("MarkerRune() = %q, want %q", got, tt.want)
			}
		})
	}
}
