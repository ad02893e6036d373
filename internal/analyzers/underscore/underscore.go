// Package underscore reports struct fields and package-level
// identifiers whose names begin with an underscore.
package underscore

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// ID is the diagnostic identifier reported by the analyzer.
const ID = "SA1309"

// Analyzer reports underscore-prefixed names. Each diagnostic carries
// a suggested fix that renames the declaration and every use.
var Analyzer = &analysis.Analyzer{
	Name:     "underscore",
	Doc:      "report struct fields and package-level identifiers that begin with an underscore",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	ins := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	uses := usesByObject(pass.TypesInfo)

	ins.Preorder([]ast.Node{(*ast.Ident)(nil)}, func(n ast.Node) {
		id := n.(*ast.Ident)
		if !strings.HasPrefix(id.Name, "_") || id.Name == "_" {
			return
		}
		obj := pass.TypesInfo.Defs[id]
		if obj == nil {
			return
		}

		var kind string
		switch {
		case isField(obj):
			kind = "Field"
		case obj.Parent() == pass.Pkg.Scope():
			kind = "Identifier"
		default:
			return
		}

		d := analysis.Diagnostic{
			Pos:      id.Pos(),
			End:      id.End(),
			Category: ID,
			Message:  fmt.Sprintf("%s '%s' must not begin with an underscore", kind, id.Name),
		}
		if name := strings.TrimLeft(id.Name, "_"); name != "" && !taken(obj, name) {
			d.SuggestedFixes = []analysis.SuggestedFix{
				renameFix(id, uses[obj], name),
			}
		}
		pass.Report(d)
	})
	return nil, nil
}

func isField(obj types.Object) bool {
	v, ok := obj.(*types.Var)
	return ok && v.IsField()
}

// taken reports whether renaming obj to name would collide with an
// existing declaration in the same scope.
func taken(obj types.Object, name string) bool {
	if isField(obj) {
		// Sibling fields are not in a scope; a collision there is a
		// compile error the regression check catches.
		return false
	}
	if s := obj.Parent(); s != nil {
		return s.Lookup(name) != nil
	}
	return false
}

func renameFix(def *ast.Ident, uses []*ast.Ident, name string) analysis.SuggestedFix {
	idents := append([]*ast.Ident{def}, uses...)
	sort.Slice(idents, func(i, j int) bool { return idents[i].Pos() < idents[j].Pos() })

	edits := make([]analysis.TextEdit, 0, len(idents))
	for _, id := range idents {
		edits = append(edits, analysis.TextEdit{
			Pos:     id.Pos(),
			End:     id.End(),
			NewText: []byte(name),
		})
	}
	return analysis.SuggestedFix{
		Message:   fmt.Sprintf("Rename to '%s'", name),
		TextEdits: edits,
	}
}

func usesByObject(info *types.Info) map[types.Object][]*ast.Ident {
	m := make(map[types.Object][]*ast.Ident)
	for id, obj := range info.Uses {
		if obj.Pos() == token.NoPos {
			continue
		}
		m[obj] = append(m[obj], id)
	}
	return m
}
