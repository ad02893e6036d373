package solution

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// Compilation is the parsed and type-checked form of a solution.
type Compilation struct {
	// Fset holds positions for Files.
	Fset *token.FileSet

	// Files is aligned with the solution's documents. An entry is nil
	// when the document could not be parsed at all.
	Files []*ast.File

	// Pkg and Info are the type-checker results. They are populated
	// even when Errors is non-empty.
	Pkg   *types.Package
	Info  *types.Info
	Sizes types.Sizes

	// Errors are the compiler diagnostics: unresolved references,
	// syntax errors and type errors, all with error severity.
	Errors []taxonomy.Diagnostic

	sol *Solution
}

// Compile parses and type-checks the solution. The result is computed
// once per revision and shared by all callers.
func (s *Solution) Compile() *Compilation {
	s.once.Do(func() {
		s.comp = s.compile()
	})
	return s.comp
}

func (s *Solution) compile() *Compilation {
	c := &Compilation{
		Fset:  token.NewFileSet(),
		Files: make([]*ast.File, len(s.docs)),
		Info: &types.Info{
			Types:        make(map[ast.Expr]types.TypeAndValue),
			Defs:         make(map[*ast.Ident]types.Object),
			Uses:         make(map[*ast.Ident]types.Object),
			Implicits:    make(map[ast.Node]types.Object),
			Selections:   make(map[*ast.SelectorExpr]*types.Selection),
			Scopes:       make(map[ast.Node]*types.Scope),
			Instances:    make(map[*ast.Ident]types.Instance),
			FileVersions: make(map[*ast.File]string),
		},
		Sizes: types.SizesFor("gc", "amd64"),
		sol:   s,
	}
	c.Errors = append(c.Errors, s.refErrors...)

	var files []*ast.File
	for i, d := range s.docs {
		f, err := parser.ParseFile(c.Fset, d.Name, d.Text, parser.ParseComments|parser.AllErrors)
		if err != nil {
			c.Errors = append(c.Errors, c.syntaxErrors(err)...)
		}
		c.Files[i] = f
		if f != nil {
			files = append(files, f)
		}
	}

	conf := types.Config{
		Importer: importerFunc(s.importPackage),
		Sizes:    c.Sizes,
		Error: func(err error) {
			c.Errors = append(c.Errors, c.typeError(err))
		},
	}
	// Errors are collected through conf.Error; the returned error is
	// only the first of them.
	pkg, _ := conf.Check(s.pkgPath, c.Fset, files, c.Info)
	c.Pkg = pkg

	sort.SliceStable(c.Errors, func(i, j int) bool {
		return lessLocation(s, c.Errors[i].Location, c.Errors[j].Location)
	})
	return c
}

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) { return f(path) }

func (s *Solution) importPackage(path string) (*types.Package, error) {
	if pkg, ok := s.refs[path]; ok {
		return pkg, nil
	}
	if path == "unsafe" {
		return types.Unsafe, nil
	}
	if s.strict {
		return nil, fmt.Errorf("no reference to %q", path)
	}
	return s.cache.Import(path)
}

func (c *Compilation) syntaxErrors(err error) []taxonomy.Diagnostic {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		return []taxonomy.Diagnostic{{
			ID:       taxonomy.SyntaxID,
			Severity: taxonomy.SeverityError,
			Message:  err.Error(),
		}}
	}
	diags := make([]taxonomy.Diagnostic, 0, len(list))
	for _, e := range list {
		diags = append(diags, taxonomy.Diagnostic{
			ID:       taxonomy.SyntaxID,
			Severity: taxonomy.SeverityError,
			Message:  e.Msg,
			Location: c.locationOf(e.Pos),
		})
	}
	return diags
}

func (c *Compilation) typeError(err error) taxonomy.Diagnostic {
	var te types.Error
	if !errors.As(err, &te) {
		return taxonomy.Diagnostic{
			ID:       taxonomy.TypeCheckID,
			Severity: taxonomy.SeverityError,
			Message:  err.Error(),
		}
	}
	id := taxonomy.TypeCheckID
	if strings.HasPrefix(te.Msg, "could not import") {
		id = taxonomy.ReferenceID
	}
	return taxonomy.Diagnostic{
		ID:       id,
		Severity: taxonomy.SeverityError,
		Message:  te.Msg,
		Location: c.Location(te.Pos, te.Pos),
	}
}

func (c *Compilation) locationOf(p token.Position) taxonomy.Location {
	d := c.sol.DocumentByName(p.Filename)
	if d == nil {
		return taxonomy.Location{Document: p.Filename}
	}
	return taxonomy.Location{
		Document: d.Name,
		Start:    p.Offset,
		End:      p.Offset,
		Position: d.Position(p.Offset),
	}
}

// Location converts a token position range inside the solution into a
// document location. Positions outside the solution's documents yield
// a location with only the file name set.
func (c *Compilation) Location(pos, end token.Pos) taxonomy.Location {
	if !pos.IsValid() {
		return taxonomy.Location{}
	}
	start := c.Fset.Position(pos)
	loc := c.locationOf(start)
	if end.IsValid() && end >= pos {
		loc.End = c.Fset.Position(end).Offset
	}
	return loc
}

// Document returns the solution document that contains pos.
func (c *Compilation) Document(pos token.Pos) (*Document, bool) {
	if !pos.IsValid() {
		return nil, false
	}
	f := c.Fset.File(pos)
	if f == nil {
		return nil, false
	}
	d := c.sol.DocumentByName(f.Name())
	return d, d != nil
}

// Offset converts a token position to a byte offset in its document.
func (c *Compilation) Offset(pos token.Pos) int {
	return c.Fset.Position(pos).Offset
}

// SyntaxFiles returns the parsed files, skipping unparseable documents.
func (c *Compilation) SyntaxFiles() []*ast.File {
	files := make([]*ast.File, 0, len(c.Files))
	for _, f := range c.Files {
		if f != nil {
			files = append(files, f)
		}
	}
	return files
}

// lessLocation orders locations by document order, then position.
// Locations without a document sort first.
func lessLocation(s *Solution, a, b taxonomy.Location) bool {
	ai, bi := documentIndex(s, a.Document), documentIndex(s, b.Document)
	if ai != bi {
		return ai < bi
	}
	return a.Position.Less(b.Position)
}

func documentIndex(s *Solution, name string) int {
	if id, ok := s.byName[name]; ok {
		return int(id)
	}
	return -1
}

// SortDiagnostics orders diagnostics by document order, then line and
// column, then id. The sort is stable.
func (s *Solution) SortDiagnostics(diags []taxonomy.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Location, diags[j].Location
		if lessLocation(s, a, b) {
			return true
		}
		if lessLocation(s, b, a) {
			return false
		}
		return diags[i].ID < diags[j].ID
	})
}
