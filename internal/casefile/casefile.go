// Package casefile loads verification cases stored as txtar archives
// and runs them through package verify.
//
// The archive comment is a YAML header naming the analyzer and the
// verification mode. Every "*.go" file is an annotated source and
// every "*.go.golden" file is the expected text of the source with the
// same name after fixing:
//
//	analyzer: underscore
//	mode: fix
//	-- a.go --
//	package a
//
//	var ↓_x = 1
//	-- a.go.golden --
//	package a
//
//	var x = 1
package casefile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"github.com/unbound-force/fixcheck/internal/analyzers"
	"github.com/unbound-force/fixcheck/internal/config"
	"github.com/unbound-force/fixcheck/internal/marker"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/verify"
)

// Extension is the file extension of case files.
const Extension = ".txtar"

const goldenSuffix = ".golden"

// Header is the YAML comment section of a case file.
type Header struct {
	// Analyzer is the registry name of the analyzer under test.
	Analyzer string `yaml:"analyzer"`

	// Mode is one of valid, diagnostics, fix, fixall or nofix.
	// Defaults to diagnostics, or fix when golden files exist.
	Mode taxonomy.Mode `yaml:"mode"`

	// ID and Message narrow the expected diagnostic. Positions always
	// come from markers.
	ID      string `yaml:"id"`
	Message string `yaml:"message"`

	// Title selects the code action when several are offered.
	Title string `yaml:"title"`

	// References are added to the references from the settings.
	References []string `yaml:"references"`
}

// Case is one parsed case file.
type Case struct {
	// Name is the case label, normally the path relative to the
	// discovery root.
	Name string

	Header Header

	// Sources are the annotated sources in archive order.
	Sources []verify.Source

	// Golden maps a source name to its expected fixed text.
	Golden map[string]string
}

// Load reads and parses the case file at path.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}
	return Parse(path, data)
}

// Parse parses a case archive. name labels the case in results.
func Parse(name string, data []byte) (*Case, error) {
	ar := txtar.Parse(data)

	c := &Case{Name: name, Golden: make(map[string]string)}
	dec := yaml.NewDecoder(bytes.NewReader(ar.Comment))
	dec.KnownFields(true)
	if err := dec.Decode(&c.Header); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing header of %s: %w", name, err)
	}

	for _, f := range ar.Files {
		switch {
		case strings.HasSuffix(f.Name, ".go"+goldenSuffix):
			c.Golden[strings.TrimSuffix(f.Name, goldenSuffix)] = string(f.Data)
		case strings.HasSuffix(f.Name, ".go"):
			c.Sources = append(c.Sources, verify.Source{Name: f.Name, Text: string(f.Data)})
		default:
			return nil, fmt.Errorf("%s: unexpected file %q in archive", name, f.Name)
		}
	}

	if c.Header.Mode == "" {
		c.Header.Mode = taxonomy.ModeDiagnostics
		if len(c.Golden) > 0 {
			c.Header.Mode = taxonomy.ModeFix
		}
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

func (c *Case) validate() error {
	if c.Header.Analyzer == "" {
		return errors.New("header is missing analyzer")
	}
	if len(c.Sources) == 0 {
		return errors.New("archive has no .go sources")
	}
	switch c.Header.Mode {
	case taxonomy.ModeValid, taxonomy.ModeDiagnostics, taxonomy.ModeFix,
		taxonomy.ModeFixAll, taxonomy.ModeNoFix:
	default:
		return fmt.Errorf("unknown mode %q", c.Header.Mode)
	}
	for name := range c.Golden {
		if !c.hasSource(name) {
			return fmt.Errorf("golden file %s%s has no matching source", name, goldenSuffix)
		}
	}
	return nil
}

func (c *Case) hasSource(name string) bool {
	for _, s := range c.Sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// RunOptions configures Run.
type RunOptions struct {
	// Config supplies the settings. If nil, DefaultConfig() is used.
	Config *config.FixcheckConfig

	// Logger, when set, traces fix runs.
	Logger *log.Logger
}

// Run executes the case. The returned error is the verification
// failure, if any; the result is nil only when the case could not be
// started.
func Run(ctx context.Context, c *Case, opts RunOptions) (*taxonomy.VerificationResult, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	entry, err := analyzers.Lookup(c.Header.Analyzer)
	if err != nil {
		return nil, err
	}
	a := entry.Engine()

	vopts := []verify.Option{
		verify.WithSettings(opts.Config),
		verify.WithReferences(c.Header.References...),
		verify.WithName(c.Name),
		verify.WithActionTitle(c.Header.Title),
		verify.WithLogger(opts.Logger),
	}
	var expected []verify.Expected
	if c.Header.ID != "" || c.Header.Message != "" {
		expected = append(expected, verify.ExpectDiagnostic(c.Header.ID).WithMessage(c.Header.Message))
	}

	switch c.Header.Mode {
	case taxonomy.ModeValid:
		return verify.Valid(ctx, a, c.Sources, vopts...)
	case taxonomy.ModeDiagnostics:
		return verify.Diagnostics(ctx, a, expected, c.Sources, vopts...)
	}

	p := entry.Provider()
	if p == nil {
		return nil, fmt.Errorf("analyzer %s offers no fixes", entry.Name)
	}
	vopts = append(vopts, verify.WithExpected(expected...))

	switch c.Header.Mode {
	case taxonomy.ModeNoFix:
		return verify.NoFix(ctx, a, p, c.Sources, vopts...)
	case taxonomy.ModeFixAll:
		return verify.FixAll(ctx, a, p, c.Sources, c.after(opts.Config.MarkerRune()), vopts...)
	default:
		return verify.CodeFix(ctx, a, p, c.Sources, c.after(opts.Config.MarkerRune()), vopts...)
	}
}

// after returns the expected fixed text of every source. A source
// without a golden file is expected to stay unchanged.
func (c *Case) after(mk rune) []string {
	out := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		if g, ok := c.Golden[s.Name]; ok {
			out[i] = g
			continue
		}
		out[i], _ = marker.Strip(mk, s.Text)
	}
	return out
}
