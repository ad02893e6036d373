// Package refcache resolves external package references for program
// models. A single process-wide cache is shared by every verification
// run: entries are immutable once stored and keyed by import path, so
// concurrent readers never observe a partially built entry and
// concurrent writers for the same key keep the first value.
package refcache

import (
	"context"
	"fmt"
	"go/importer"
	"go/token"
	"go/types"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"
)

// Cache resolves import paths to type-checked packages.
//
// All packages come from one underlying importer so that types shared
// between references (io.Writer seen through fmt and through os) have
// a single identity. The importer is not safe for concurrent use and
// is serialized by mu; lookups of already resolved paths do not take
// the lock.
type Cache struct {
	mu   sync.Mutex
	imp  types.Importer
	fset *token.FileSet

	pkgs sync.Map // import path -> *types.Package

	index func() (map[string]string, error)
}

// Default is the process-wide cache used when a builder is not given
// one explicitly.
var Default = New("gc")

// New returns an empty cache backed by the importer for the named
// compiler ("gc" reads export data, "source" type-checks from source).
// The gc importer locates export data with "go list -export", so
// module dependencies of the working directory resolve as well as the
// standard library.
func New(compiler string) *Cache {
	fset := token.NewFileSet()
	var lookup importer.Lookup
	if compiler == "gc" {
		lookup = exportData
	}
	c := &Cache{
		imp:  importer.ForCompiler(fset, compiler, lookup),
		fset: fset,
	}
	c.index = sync.OnceValues(buildStdIndex)
	return c
}

// exportData opens the compiler export data for an import path.
func exportData(path string) (io.ReadCloser, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedExportFile}
	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", path, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("listing %q: got %d packages", path, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, pkg.Errors[0]
	}
	if pkg.ExportFile == "" {
		return nil, fmt.Errorf("no export data for %q", path)
	}
	return os.Open(pkg.ExportFile)
}

// Import returns the package for an import path, importing it on
// first use.
func (c *Cache) Import(path string) (*types.Package, error) {
	if path == "unsafe" {
		return types.Unsafe, nil
	}
	if v, ok := c.pkgs.Load(path); ok {
		return v.(*types.Package), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have stored it while we waited.
	if v, ok := c.pkgs.Load(path); ok {
		return v.(*types.Package), nil
	}

	pkg, err := c.imp.Import(path)
	if err != nil {
		return nil, fmt.Errorf("importing %q: %w", path, err)
	}
	actual, _ := c.pkgs.LoadOrStore(path, pkg)
	return actual.(*types.Package), nil
}

// Resolve resolves a reference name. Import paths are imported
// directly; a bare simple name that is not itself importable (e.g.
// "template") is looked up in the standard library index first.
func (c *Cache) Resolve(ctx context.Context, name string) (*types.Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("empty reference name")
	}

	pkg, err := c.Import(name)
	if err == nil || strings.Contains(name, "/") {
		return pkg, err
	}

	path, ok, idxErr := c.Lookup(name)
	if idxErr != nil {
		return nil, fmt.Errorf("resolving %q: %w (index unavailable: %v)", name, err, idxErr)
	}
	if !ok || path == name {
		return nil, err
	}
	return c.Import(path)
}

// Lookup maps a simple package name to an import path using the
// standard library index. The index is built on first use.
func (c *Cache) Lookup(name string) (string, bool, error) {
	idx, err := c.index()
	if err != nil {
		return "", false, err
	}
	path, ok := idx[name]
	return path, ok, nil
}

// Len returns the number of resolved packages in the cache.
func (c *Cache) Len() int {
	n := 0
	c.pkgs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// buildStdIndex enumerates the standard library and maps each simple
// package name to its import path. Internal and vendored packages are
// skipped. When two packages share a name, the first in load order
// wins (e.g. "template" resolves to whichever of text/template and
// html/template go list reports first).
func buildStdIndex() (map[string]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName}
	pkgs, err := packages.Load(cfg, "std")
	if err != nil {
		return nil, fmt.Errorf("listing standard library: %w", err)
	}

	idx := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		if isHidden(p.PkgPath) {
			continue
		}
		if _, exists := idx[p.Name]; !exists {
			idx[p.Name] = p.PkgPath
		}
	}
	return idx, nil
}

func isHidden(path string) bool {
	for _, elem := range strings.Split(path, "/") {
		if elem == "internal" || elem == "vendor" {
			return true
		}
	}
	return false
}
