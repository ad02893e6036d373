// Package verify is the entry point for verifying analyzers and code
// fix providers. Every function builds a program model from source
// text, runs the analyzer, and reports a single pass/fail result with
// a structured failure explaining what did not match.
//
// Expected diagnostic positions are written inline with a marker
// (by default '↓') placed right before the offending token:
//
//	before := "package p\n\ntype C struct {\n\t↓_value int\n}\n"
//	after := "package p\n\ntype C struct {\n\tvalue int\n}\n"
//	_, err := verify.CodeFix(ctx, analyzer, provider, verify.Sources(before), []string{after})
package verify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/unbound-force/fixcheck/internal/analysis"
	"github.com/unbound-force/fixcheck/internal/codeassert"
	"github.com/unbound-force/fixcheck/internal/config"
	"github.com/unbound-force/fixcheck/internal/expect"
	"github.com/unbound-force/fixcheck/internal/fix"
	"github.com/unbound-force/fixcheck/internal/marker"
	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
)

// Version is embedded in result metadata.
var Version = "dev"

// Collaborator and data types, re-exported for callers outside this
// module.
type (
	Analyzer   = analysis.Analyzer
	Provider   = analysis.Provider
	CodeAction = analysis.CodeAction
	Source     = solution.Source
	Solution   = solution.Solution
	Expected   = expect.Expected
	Diagnostic = taxonomy.Diagnostic
	Result     = taxonomy.VerificationResult
	Settings   = config.FixcheckConfig
)

// Sources wraps unnamed source texts. Documents are named file0.go,
// file1.go and so on.
func Sources(texts ...string) []Source {
	out := make([]Source, len(texts))
	for i, t := range texts {
		out[i] = Source{Text: t}
	}
	return out
}

// ExpectDiagnostic returns an expectation for id. Chain WithMessage
// and At to narrow it.
func ExpectDiagnostic(id string) Expected {
	return expect.New(id)
}

// Valid verifies that the analyzer reports nothing on sources and that
// they compile.
func Valid(ctx context.Context, a Analyzer, sources []Source, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	r := o.begin(taxonomy.ModeValid, a, sources)

	sol, err := o.build(ctx, sources)
	if err != nil {
		return r.fail(err)
	}
	return r.finish(validate(ctx, o, a, sol, r))
}

// ValidSolution is Valid for an already built solution.
func ValidSolution(ctx context.Context, a Analyzer, sol *Solution, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	var sources []Source
	for _, d := range sol.Documents() {
		sources = append(sources, Source{Name: d.Name, Text: d.Text})
	}
	r := o.begin(taxonomy.ModeValid, a, sources)
	return r.finish(validate(ctx, o, a, sol, r))
}

func validate(ctx context.Context, o *options, a Analyzer, sol *solution.Solution, r *run) error {
	c, err := analysis.Collect(ctx, a, sol)
	if err != nil {
		return err
	}
	r.res.Diagnostics = c.All()
	if len(c.Analyzer) > 0 {
		return verifyerr.Newf(verifyerr.UnexpectedDiagnostics,
			"Expected no diagnostics, found:\n%s", taxonomy.FormatDiagnostics(c.Analyzer))
	}
	if errs := compilerErrors(o, nil, c); len(errs) > 0 {
		return compilationFailure("The code does not compile", errs)
	}
	return nil
}

// Diagnostics verifies that the analyzer reports exactly the expected
// diagnostics. Positions come from markers in sources, from explicit
// positions in expected, or both.
func Diagnostics(ctx context.Context, a Analyzer, expected []Expected, sources []Source, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	r := o.begin(taxonomy.ModeDiagnostics, a, sources)

	if _, _, err := o.analyze(ctx, a, expected, sources, r); err != nil {
		return r.fail(err)
	}
	return r.finish(nil)
}

// analyze parses markers, builds the solution, collects diagnostics
// and matches them against the expectations.
func (o *options) analyze(ctx context.Context, a Analyzer, expected []Expected, sources []Source, r *run) (*solution.Solution, *analysis.Collected, error) {
	cleaned, markers := o.strip(sources)
	supported := a.SupportedDiagnostics()
	entries, err := expect.Normalize(supported, expected, markers)
	if err != nil {
		return nil, nil, err
	}

	sol, err := o.build(ctx, cleaned)
	if err != nil {
		return nil, nil, err
	}
	c, err := analysis.Collect(ctx, a, sol)
	if err != nil {
		return nil, nil, err
	}
	r.res.Diagnostics = c.All()

	if errs := compilerErrors(o, supported, c); len(errs) > 0 && !o.settings.AllowCompilationErrors {
		return nil, nil, compilationFailure("The code does not compile", errs)
	}
	if _, err := expect.Match(sol, supported, entries, c.All()); err != nil {
		return nil, nil, err
	}
	return sol, c, nil
}

// CodeFix verifies a single fix: the marked diagnostic is reported,
// the provider's action changes the code without new errors, and the
// result equals after, one expected text per source document.
func CodeFix(ctx context.Context, a Analyzer, p Provider, before []Source, after []string, opts ...Option) (*Result, error) {
	return codeFix(ctx, taxonomy.ModeFix, a, p, before, after, opts)
}

// FixAll is CodeFix in batch mode: every fixable diagnostic is fixed,
// repeatedly, until none remain.
func FixAll(ctx context.Context, a Analyzer, p Provider, before []Source, after []string, opts ...Option) (*Result, error) {
	return codeFix(ctx, taxonomy.ModeFixAll, a, p, before, after, opts)
}

func codeFix(ctx context.Context, mode taxonomy.Mode, a Analyzer, p Provider, before []Source, after []string, opts []Option) (*Result, error) {
	o := newOptions(opts)
	r := o.begin(mode, a, before)

	if len(after) != len(before) {
		return r.fail(verifyerr.Newf(verifyerr.Format,
			"expected %d fixed documents, one per source document, got %d", len(before), len(after)))
	}

	sol, _, err := o.analyze(ctx, a, o.expected, before, r)
	if err != nil {
		return r.fail(err)
	}

	req := fix.Request{
		Analyzer:      a,
		Provider:      p,
		Solution:      sol,
		ActionTitle:   o.title,
		MaxIterations: o.settings.FixAll.MaxIterations,
		Logger:        o.logger,
	}
	var res *fix.Result
	if mode == taxonomy.ModeFixAll {
		res, err = fix.All(ctx, req)
	} else {
		res, err = fix.Single(ctx, req)
	}
	if err != nil {
		return r.fail(err)
	}
	r.res.Fixes = res.Applications

	for i, d := range res.Solution.Documents() {
		if err := codeassert.EqualNamed(d.Name, after[i], d.Text); err != nil {
			return r.fail(err)
		}
	}

	if errs := compilerErrors(o, a.SupportedDiagnostics(), res.After); len(errs) > 0 && !o.settings.AllowCompilationErrors {
		return r.fail(compilationFailure("The fixed code does not compile", errs))
	}
	return r.finish(nil)
}

// NoFix verifies that the provider offers no action for the marked
// diagnostics.
func NoFix(ctx context.Context, a Analyzer, p Provider, sources []Source, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	r := o.begin(taxonomy.ModeNoFix, a, sources)

	sol, c, err := o.analyze(ctx, a, o.expected, sources, r)
	if err != nil {
		return r.fail(err)
	}

	fixable := c.WithIDs(p.FixableDiagnosticIDs())
	if len(fixable) == 0 {
		return r.fail(verifyerr.Newf(verifyerr.NoFixableDiagnostic,
			"expected diagnostics fixable by %s, found none.\nDiagnostics:\n%s",
			analysis.NameOf(p), taxonomy.FormatDiagnostics(c.All())))
	}
	for _, d := range fixable {
		actions, err := p.ProposeActions(ctx, d, sol)
		if err != nil {
			return r.fail(verifyerr.Wrap(verifyerr.Collaborator,
				fmt.Sprintf("provider %s failed for %s", analysis.NameOf(p), d), err))
		}
		for _, act := range actions {
			if o.title == "" || act.Title() == o.title {
				return r.fail(verifyerr.Newf(verifyerr.UnexpectedDiagnostics,
					"Expected no code action for %s, found %q", d, act.Title()))
			}
		}
	}
	return r.finish(nil)
}

func (o *options) strip(sources []Source) ([]Source, []marker.Located) {
	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
	}
	cleaned, markers := marker.Parse(o.settings.MarkerRune(), texts...)
	out := make([]Source, len(sources))
	for i, s := range sources {
		out[i] = Source{Name: s.Name, Text: cleaned[i]}
	}
	return out, markers
}

func (o *options) build(ctx context.Context, sources []Source) (*solution.Solution, error) {
	sol, err := solution.Build(ctx, sources, o.refs, solution.Options{
		PackagePath: o.pkgPath,
		Cache:       o.cache,
		Strict:      o.settings.StrictReferences,
		Jobs:        o.settings.Jobs,
	})
	if err != nil {
		return nil, verifyerr.Wrap(verifyerr.Collaborator, "building solution", err)
	}
	return sol, nil
}

// compilerErrors returns the compiler diagnostics that count as
// compilation failures: not suppressed and not among the ids the
// analyzer itself is verified for.
func compilerErrors(o *options, supported []string, c *analysis.Collected) []taxonomy.Diagnostic {
	var errs []taxonomy.Diagnostic
	for _, d := range c.Compiler {
		if !d.IsError() || o.settings.Suppressed(d.ID) || analysis.Supports(supported, d.ID) {
			continue
		}
		errs = append(errs, d)
	}
	return errs
}

func compilationFailure(summary string, errs []taxonomy.Diagnostic) error {
	return verifyerr.Newf(verifyerr.CompilationErrors, "%s:\n%s", summary, taxonomy.FormatDiagnostics(errs))
}

// run accumulates the result of one verification call.
type run struct {
	res   *taxonomy.VerificationResult
	start time.Time
}

func (o *options) begin(mode taxonomy.Mode, a Analyzer, sources []Source) *run {
	name := o.name
	if name == "" {
		name = "file0.go"
		if len(sources) > 0 && sources[0].Name != "" {
			name = sources[0].Name
		}
	}
	analyzer := analysis.NameOf(a)
	return &run{
		res: &taxonomy.VerificationResult{
			ID:       taxonomy.GenerateID(name, mode, analyzer),
			Name:     name,
			Mode:     mode,
			Analyzer: analyzer,
		},
		start: time.Now(),
	}
}

func (r *run) fail(err error) (*Result, error) {
	return r.finish(err)
}

func (r *run) finish(err error) (*Result, error) {
	r.res.Metadata = taxonomy.Metadata{
		Version:   Version,
		GoVersion: runtime.Version(),
		Timestamp: r.start,
		Duration:  time.Since(r.start),
	}
	if err == nil {
		r.res.Passed = true
		return r.res, nil
	}
	kind := verifyerr.KindOf(err)
	if kind == "" {
		kind = verifyerr.Collaborator
		err = verifyerr.Wrap(kind, "verification failed", err)
	}
	var ve *verifyerr.Error
	msg := err.Error()
	if errors.As(err, &ve) {
		msg = ve.Message
		if ve.Cause != nil {
			msg += ": " + ve.Cause.Error()
		}
	}
	r.res.Failure = &taxonomy.Failure{Kind: string(kind), Message: msg}
	return r.res, err
}
