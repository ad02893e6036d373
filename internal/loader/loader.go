// Package loader wraps go/packages to turn a package on disk into the
// sources and references a solution is built from.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/unbound-force/fixcheck/internal/solution"
)

// LoadMode is the minimum set of flags needed to rebuild a package as
// a solution. Type information is recomputed by the solution itself.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports

// Result holds the loaded package in solution form.
type Result struct {
	// PkgPath is the import path of the loaded package.
	PkgPath string

	// Dir is the package directory.
	Dir string

	// Sources are the package's Go files, named by base name, in the
	// order go/packages reports them.
	Sources []solution.Source

	// References are the package's direct imports, sorted by path.
	References []solution.Reference
}

// Load loads a Go package at the given import path or file pattern.
// It returns an error if the pattern matches nothing or the package
// cannot be listed or parsed.
func Load(pattern string) (*Result, error) {
	cfg := &packages.Config{
		Mode:  LoadMode,
		Tests: false,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading package %q: %w", pattern, err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for pattern %q", pattern)
	}

	pkg := pkgs[0]

	// Listing and parse errors make the package unusable; type errors
	// are reported later by the solution's own compilation.
	var errs []string
	for _, e := range pkg.Errors {
		if e.Kind == packages.TypeError {
			continue
		}
		errs = append(errs, e.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package %q has errors:\n  %s",
			pattern, strings.Join(errs, "\n  "))
	}

	files := pkg.CompiledGoFiles
	if len(files) == 0 {
		files = pkg.GoFiles
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("package %q has no Go files", pattern)
	}

	res := &Result{PkgPath: pkg.PkgPath}
	for _, path := range files {
		// Cgo-processed files live in the build cache; skip them.
		if filepath.Ext(path) != ".go" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if res.Dir == "" {
			res.Dir = filepath.Dir(path)
		}
		res.Sources = append(res.Sources, solution.Source{
			Name: filepath.Base(path),
			Text: string(data),
		})
	}

	paths := make([]string, 0, len(pkg.Imports))
	for path := range pkg.Imports {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		res.References = append(res.References, solution.Reference{Path: path})
	}

	return res, nil
}
