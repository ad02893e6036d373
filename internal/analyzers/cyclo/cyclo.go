// Package cyclo reports functions whose cyclomatic complexity exceeds
// a threshold. Complexity is computed by gocyclo.
package cyclo

import (
	"flag"
	"fmt"
	"go/token"

	"github.com/fzipp/gocyclo"
	"golang.org/x/tools/go/analysis"
)

// ID is the diagnostic identifier reported by the analyzer.
const ID = "GC1001"

// DefaultOver is the default complexity threshold.
const DefaultOver = 10

// Analyzer reports functions over DefaultOver. The threshold can be
// changed with the -over flag.
var Analyzer = New(DefaultOver)

// New returns a cyclo analyzer with the given threshold.
func New(over int) *analysis.Analyzer {
	a := &analysis.Analyzer{
		Name: "cyclo",
		Doc:  "report functions with high cyclomatic complexity",
	}
	a.Flags.Init("cyclo", flag.ContinueOnError)
	threshold := a.Flags.Int("over", over, "report functions with complexity > N")
	a.Run = func(pass *analysis.Pass) (any, error) {
		return nil, run(pass, *threshold)
	}
	return a
}

func run(pass *analysis.Pass, over int) error {
	var stats gocyclo.Stats
	for _, f := range pass.Files {
		stats = gocyclo.AnalyzeASTFile(f, pass.Fset, stats)
	}

	for _, s := range stats {
		if s.Complexity <= over {
			continue
		}
		pos, err := position(pass.Fset, s.Pos)
		if err != nil {
			return err
		}
		pass.Report(analysis.Diagnostic{
			Pos:      pos,
			Category: ID,
			Message: fmt.Sprintf("cyclomatic complexity %d of func %s is high (> %d)",
				s.Complexity, s.FuncName, over),
		})
	}
	return nil
}

// position maps a gocyclo position back to a token.Pos.
func position(fset *token.FileSet, p token.Position) (token.Pos, error) {
	var pos token.Pos
	fset.Iterate(func(f *token.File) bool {
		if f.Name() != p.Filename {
			return true
		}
		pos = f.LineStart(p.Line) + token.Pos(p.Column-1)
		return false
	})
	if !pos.IsValid() {
		return token.NoPos, fmt.Errorf("cyclo: no file for %s", p)
	}
	return pos, nil
}
