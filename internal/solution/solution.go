// Package solution implements the program model: an ordered,
// immutable set of Go source documents plus the references needed to
// type-check them. Every edit produces a new Solution that shares the
// unchanged documents with its parent, so revisions can always be
// diffed and independent verification runs never race on shared
// state.
package solution

import (
	"context"
	"fmt"
	"go/types"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/fixcheck/internal/refcache"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
)

// DefaultPackagePath is the import path given to the package formed by
// a solution's documents when the caller does not choose one.
const DefaultPackagePath = "fixcheck.test/p"

// Reference names an external package the documents may import. Path
// is an import path or a simple standard library name ("utf8").
type Reference struct {
	Path string `json:"path" yaml:"path"`
}

// Options configures Build.
type Options struct {
	// PackagePath is the import path of the package under test.
	// Defaults to DefaultPackagePath.
	PackagePath string

	// Cache resolves references. Defaults to refcache.Default.
	Cache *refcache.Cache

	// Strict limits imports to the declared references. When false,
	// undeclared imports are resolved through Cache on demand.
	Strict bool

	// Jobs bounds concurrent reference resolution. Zero means 4.
	Jobs int
}

// Solution is an immutable program model revision.
type Solution struct {
	pkgPath string
	docs    []*Document
	byName  map[string]DocumentID

	refs      map[string]*types.Package
	refErrors []taxonomy.Diagnostic
	cache     *refcache.Cache
	strict    bool

	once sync.Once
	comp *Compilation
}

// Build assembles sources and references into a solution. Unnamed
// sources are named file<N>.go. Reference resolution failures are not
// fatal: they are recorded as error diagnostics with id "reference"
// and surface through Compile.
func Build(ctx context.Context, sources []Source, refs []Reference, opts Options) (*Solution, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("building solution: no sources")
	}
	if opts.PackagePath == "" {
		opts.PackagePath = DefaultPackagePath
	}
	if opts.Cache == nil {
		opts.Cache = refcache.Default
	}
	if opts.Jobs <= 0 {
		opts.Jobs = 4
	}

	s := &Solution{
		pkgPath: opts.PackagePath,
		docs:    make([]*Document, len(sources)),
		byName:  make(map[string]DocumentID, len(sources)),
		refs:    make(map[string]*types.Package, len(refs)),
		cache:   opts.Cache,
		strict:  opts.Strict,
	}
	for i, src := range sources {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("file%d.go", i)
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("building solution: duplicate document name %q", name)
		}
		id := DocumentID(i)
		s.byName[name] = id
		s.docs[i] = &Document{ID: id, Name: name, Text: src.Text}
	}

	resolved := make([]*types.Package, len(refs))
	failures := make([]error, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, ref := range refs {
		g.Go(func() error {
			pkg, err := opts.Cache.Resolve(gctx, ref.Path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				return nil
			}
			resolved[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building solution: %w", err)
	}

	for i, ref := range refs {
		if failures[i] != nil {
			s.refErrors = append(s.refErrors, taxonomy.Diagnostic{
				ID:       taxonomy.ReferenceID,
				Severity: taxonomy.SeverityError,
				Message:  fmt.Sprintf("unresolved reference %q: %v", ref.Path, failures[i]),
			})
			continue
		}
		pkg := resolved[i]
		s.refs[pkg.Path()] = pkg
		// Simple names resolve to a different path; keep both keys.
		s.refs[ref.Path] = pkg
	}

	return s, nil
}

// PackagePath returns the import path of the package under test.
func (s *Solution) PackagePath() string { return s.pkgPath }

// Documents returns the documents in order. The slice must not be
// modified.
func (s *Solution) Documents() []*Document { return s.docs }

// Len returns the number of documents.
func (s *Solution) Len() int { return len(s.docs) }

// Document returns the document with the given id, or nil.
func (s *Solution) Document(id DocumentID) *Document {
	if id < 0 || int(id) >= len(s.docs) {
		return nil
	}
	return s.docs[id]
}

// DocumentByName returns the document with the given name, or nil.
func (s *Solution) DocumentByName(name string) *Document {
	id, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.docs[id]
}

// WithDocumentText returns a new revision in which document id has the
// given text. All other documents are shared with s. If the text is
// unchanged, s itself is returned.
func (s *Solution) WithDocumentText(id DocumentID, text string) *Solution {
	old := s.Document(id)
	if old == nil || old.Text == text {
		return s
	}
	return s.withTexts(map[DocumentID]string{id: text})
}

// withTexts derives a new revision with replaced document texts.
func (s *Solution) withTexts(texts map[DocumentID]string) *Solution {
	docs := make([]*Document, len(s.docs))
	copy(docs, s.docs)
	for id, text := range texts {
		d := s.docs[id]
		docs[id] = &Document{ID: d.ID, Name: d.Name, Text: text}
	}
	return &Solution{
		pkgPath:   s.pkgPath,
		docs:      docs,
		byName:    s.byName,
		refs:      s.refs,
		refErrors: s.refErrors,
		cache:     s.cache,
		strict:    s.strict,
	}
}

// Equal reports whether both revisions have the same documents with
// identical text.
func (s *Solution) Equal(other *Solution) bool {
	return len(s.ChangedDocuments(other)) == 0 && len(s.docs) == len(other.docs)
}

// ChangedDocuments returns the names of documents whose text differs
// between s and other, in document order. Documents missing from
// other count as changed.
func (s *Solution) ChangedDocuments(other *Solution) []string {
	var changed []string
	for _, d := range s.docs {
		o := other.DocumentByName(d.Name)
		if o == nil || o.Text != d.Text {
			changed = append(changed, d.Name)
		}
	}
	return changed
}
