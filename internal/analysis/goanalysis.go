package analysis

import (
	"context"
	"fmt"
	"go/types"
	"reflect"
	"sort"

	"golang.org/x/tools/go/analysis"

	"github.com/unbound-force/fixcheck/internal/solution"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// GoOptions configures FromGoAnalyzer.
type GoOptions struct {
	// IDs are the supported diagnostic identifiers. Defaults to the
	// analyzer name. Diagnostics whose Category is one of IDs use it
	// as their identifier; all others use IDs[0].
	IDs []string

	// Severity is the severity of every reported diagnostic.
	// Defaults to warning.
	Severity taxonomy.Severity
}

// FromGoAnalyzer adapts a go/analysis analyzer. The analyzer and its
// Requires graph run in-process over the solution's compilation, the
// way a single-package checker would run them. Facts are kept per run
// and never cross package boundaries.
func FromGoAnalyzer(a *analysis.Analyzer, opts GoOptions) Analyzer {
	if len(opts.IDs) == 0 {
		opts.IDs = []string{a.Name}
	}
	if opts.Severity == "" {
		opts.Severity = taxonomy.SeverityWarning
	}
	return &goAnalyzer{a: a, opts: opts}
}

type goAnalyzer struct {
	a    *analysis.Analyzer
	opts GoOptions
}

func (g *goAnalyzer) Name() string { return g.a.Name }

func (g *goAnalyzer) SupportedDiagnostics() []string { return g.opts.IDs }

// Analyze runs the analyzer. When the solution does not compile and
// some analyzer in the graph cannot tolerate type errors, nothing is
// reported: the collector surfaces the compiler errors instead.
func (g *goAnalyzer) Analyze(ctx context.Context, sol *solution.Solution) (map[solution.DocumentID][]taxonomy.Diagnostic, error) {
	comp := sol.Compile()
	if len(comp.Errors) > 0 && !tolerant(g.a, map[*analysis.Analyzer]bool{}) {
		return nil, nil
	}

	r := &goRun{
		ctx:         ctx,
		sol:         sol,
		comp:        comp,
		root:        g.a,
		results:     make(map[*analysis.Analyzer]any),
		objectFacts: make(map[objectFactKey]analysis.Fact),
		pkgFacts:    make(map[reflect.Type]analysis.Fact),
	}
	if _, err := r.run(g.a); err != nil {
		return nil, err
	}

	out := make(map[solution.DocumentID][]taxonomy.Diagnostic)
	for _, d := range r.diags {
		diag, id, err := g.convert(comp, d)
		if err != nil {
			return nil, err
		}
		out[id] = append(out[id], diag)
	}
	return out, nil
}

func tolerant(a *analysis.Analyzer, seen map[*analysis.Analyzer]bool) bool {
	if seen[a] {
		return true
	}
	seen[a] = true
	if !a.RunDespiteErrors {
		return false
	}
	for _, req := range a.Requires {
		if !tolerant(req, seen) {
			return false
		}
	}
	return true
}

func (g *goAnalyzer) convert(comp *solution.Compilation, d analysis.Diagnostic) (taxonomy.Diagnostic, solution.DocumentID, error) {
	doc, ok := comp.Document(d.Pos)
	if !ok {
		return taxonomy.Diagnostic{}, 0, fmt.Errorf("%s: diagnostic %q is outside the solution", g.a.Name, d.Message)
	}

	id := g.opts.IDs[0]
	if d.Category != "" && Supports(g.opts.IDs, d.Category) {
		id = d.Category
	}

	diag := taxonomy.Diagnostic{
		ID:       id,
		Severity: g.opts.Severity,
		Message:  d.Message,
		Location: comp.Location(d.Pos, d.End),
	}
	for _, rel := range d.Related {
		diag.AdditionalLocations = append(diag.AdditionalLocations, comp.Location(rel.Pos, rel.End))
	}
	for _, sf := range d.SuggestedFixes {
		fix := taxonomy.SuggestedFix{Title: sf.Message}
		for _, e := range sf.TextEdits {
			edoc, ok := comp.Document(e.Pos)
			if !ok {
				return taxonomy.Diagnostic{}, 0, fmt.Errorf("%s: suggested fix %q edits outside the solution", g.a.Name, sf.Message)
			}
			end := e.End
			if !end.IsValid() {
				end = e.Pos
			}
			fix.Edits = append(fix.Edits, taxonomy.TextEdit{
				Document: edoc.Name,
				Start:    comp.Offset(e.Pos),
				End:      comp.Offset(end),
				NewText:  string(e.NewText),
			})
		}
		diag.Fixes = append(diag.Fixes, fix)
	}
	return diag, doc.ID, nil
}

type objectFactKey struct {
	obj types.Object
	typ reflect.Type
}

// goRun executes one analyzer graph over one compilation.
type goRun struct {
	ctx  context.Context
	sol  *solution.Solution
	comp *solution.Compilation
	root *analysis.Analyzer

	results     map[*analysis.Analyzer]any
	objectFacts map[objectFactKey]analysis.Fact
	pkgFacts    map[reflect.Type]analysis.Fact

	diags []analysis.Diagnostic
}

func (r *goRun) run(a *analysis.Analyzer) (any, error) {
	if res, ok := r.results[a]; ok {
		return res, nil
	}
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}

	resultOf := make(map[*analysis.Analyzer]any, len(a.Requires))
	for _, req := range a.Requires {
		res, err := r.run(req)
		if err != nil {
			return nil, err
		}
		resultOf[req] = res
	}

	var typeErrors []types.Error
	for _, d := range r.comp.Errors {
		typeErrors = append(typeErrors, types.Error{Fset: r.comp.Fset, Msg: d.Message})
	}

	pass := &analysis.Pass{
		Analyzer:   a,
		Fset:       r.comp.Fset,
		Files:      r.comp.SyntaxFiles(),
		Pkg:        r.comp.Pkg,
		TypesInfo:  r.comp.Info,
		TypesSizes: r.comp.Sizes,
		TypeErrors: typeErrors,
		ResultOf:   resultOf,
		Report: func(d analysis.Diagnostic) {
			if a == r.root {
				r.diags = append(r.diags, d)
			}
		},
		ReadFile:          r.readFile,
		ImportObjectFact:  r.importObjectFact,
		ExportObjectFact:  r.exportObjectFact,
		ImportPackageFact: r.importPackageFact,
		ExportPackageFact: r.exportPackageFact,
		AllObjectFacts:    r.allObjectFacts,
		AllPackageFacts:   r.allPackageFacts,
	}

	res, err := a.Run(pass)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", a.Name, err)
	}
	if a.ResultType != nil && res != nil {
		if got := reflect.TypeOf(res); got != a.ResultType {
			return nil, fmt.Errorf("%s returned a %v, want %v", a.Name, got, a.ResultType)
		}
	}
	r.results[a] = res
	return res, nil
}

func (r *goRun) readFile(name string) ([]byte, error) {
	if d := r.sol.DocumentByName(name); d != nil {
		return []byte(d.Text), nil
	}
	return nil, fmt.Errorf("%s is not a document of the solution", name)
}

func (r *goRun) importObjectFact(obj types.Object, fact analysis.Fact) bool {
	stored, ok := r.objectFacts[objectFactKey{obj, reflect.TypeOf(fact)}]
	if ok {
		reflect.ValueOf(fact).Elem().Set(reflect.ValueOf(stored).Elem())
	}
	return ok
}

func (r *goRun) exportObjectFact(obj types.Object, fact analysis.Fact) {
	if obj.Pkg() != r.comp.Pkg {
		panic(fmt.Sprintf("fact %T exported for %s, which is outside the package", fact, obj))
	}
	r.objectFacts[objectFactKey{obj, reflect.TypeOf(fact)}] = fact
}

func (r *goRun) importPackageFact(pkg *types.Package, fact analysis.Fact) bool {
	if pkg != r.comp.Pkg {
		return false
	}
	stored, ok := r.pkgFacts[reflect.TypeOf(fact)]
	if ok {
		reflect.ValueOf(fact).Elem().Set(reflect.ValueOf(stored).Elem())
	}
	return ok
}

func (r *goRun) exportPackageFact(fact analysis.Fact) {
	r.pkgFacts[reflect.TypeOf(fact)] = fact
}

func (r *goRun) allObjectFacts() []analysis.ObjectFact {
	facts := make([]analysis.ObjectFact, 0, len(r.objectFacts))
	for k, f := range r.objectFacts {
		facts = append(facts, analysis.ObjectFact{Object: k.obj, Fact: f})
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Object.Pos() < facts[j].Object.Pos() })
	return facts
}

func (r *goRun) allPackageFacts() []analysis.PackageFact {
	facts := make([]analysis.PackageFact, 0, len(r.pkgFacts))
	for _, f := range r.pkgFacts {
		facts = append(facts, analysis.PackageFact{Package: r.comp.Pkg, Fact: f})
	}
	return facts
}
