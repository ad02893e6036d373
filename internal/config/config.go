// Package config loads fixcheck settings from .fixcheck.yaml or
// .fixcheck.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/unbound-force/fixcheck/internal/marker"
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{".fixcheck.yaml", ".fixcheck.yml", ".fixcheck.toml"}

// FixcheckConfig holds every setting a verification run honors.
type FixcheckConfig struct {
	// Marker is the expected-error marker rune, written as a
	// one-rune string.
	Marker string `yaml:"marker" toml:"marker"`

	// AllowCompilationErrors lets diagnostics runs proceed when the
	// sources do not compile.
	AllowCompilationErrors bool `yaml:"allow_compilation_errors" toml:"allow_compilation_errors"`

	// SuppressedIDs are compiler diagnostic ids ignored by valid
	// runs and the compilation check (e.g. "typecheck").
	SuppressedIDs []string `yaml:"suppressed_ids" toml:"suppressed_ids"`

	// References are import paths or simple standard library names
	// added to every case.
	References []string `yaml:"references" toml:"references"`

	// StrictReferences limits imports to declared references.
	StrictReferences bool `yaml:"strict_references" toml:"strict_references"`

	// FixAll configures batch mode.
	FixAll FixAllConfig `yaml:"fix_all" toml:"fix_all"`

	// Cases configures case discovery.
	Cases CasesConfig `yaml:"cases" toml:"cases"`

	// Jobs bounds the number of cases run concurrently.
	Jobs int `yaml:"jobs" toml:"jobs"`
}

// FixAllConfig configures batch fixing.
type FixAllConfig struct {
	// MaxIterations bounds the fix-all loop.
	MaxIterations int `yaml:"max_iterations" toml:"max_iterations"`
}

// CasesConfig configures case file discovery.
type CasesConfig struct {
	// Include, when set, limits discovery to matching paths.
	Include []string `yaml:"include" toml:"include"`

	// Exclude skips matching paths. Supports "dir/**".
	Exclude []string `yaml:"exclude" toml:"exclude"`

	// Timeout bounds the discovery walk. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *FixcheckConfig {
	return &FixcheckConfig{
		Marker: string(marker.DefaultMarker),
		FixAll: FixAllConfig{MaxIterations: 16},
		Cases: CasesConfig{
			Exclude: []string{"vendor/**", "node_modules/**"},
			Timeout: 30 * time.Second,
		},
		Jobs: 4,
	}
}

// Find returns the first config file in dir, or "" when none exists.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the config file at path on top of DefaultConfig. An empty
// path returns the defaults. Files ending in .toml are decoded as TOML,
// everything else as YAML. Unknown keys are errors.
func Load(path string) (*FixcheckConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".toml") {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *FixcheckConfig) Validate() error {
	if utf8.RuneCountInString(c.Marker) != 1 {
		return fmt.Errorf("marker must be exactly one character, got %q", c.Marker)
	}
	if r, _ := utf8.DecodeRuneInString(c.Marker); unicode.IsSpace(r) || r == utf8.RuneError {
		return fmt.Errorf("marker %q is not a usable character", c.Marker)
	}
	if c.FixAll.MaxIterations < 1 {
		return fmt.Errorf("fix_all.max_iterations must be at least 1, got %d", c.FixAll.MaxIterations)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.Cases.Timeout < 0 {
		return fmt.Errorf("cases.timeout must not be negative, got %s", c.Cases.Timeout)
	}
	for _, p := range append(append([]string{}, c.Cases.Include...), c.Cases.Exclude...) {
		if _, err := filepath.Match(strings.TrimSuffix(p, "/**"), ""); err != nil {
			return fmt.Errorf("invalid case pattern %q: %w", p, err)
		}
	}
	return nil
}

// MarkerRune returns the marker as a rune. An empty or undecodable
// marker falls back to marker.DefaultMarker.
func (c *FixcheckConfig) MarkerRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Marker)
	if r == utf8.RuneError {
		return marker.DefaultMarker
	}
	return r
}

// Suppressed reports whether diagnostics with id are suppressed.
func (c *FixcheckConfig) Suppressed(id string) bool {
	for _, s := range c.SuppressedIDs {
		if s == id {
			return true
		}
	}
	return false
}
