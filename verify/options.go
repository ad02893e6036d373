package verify

import (
	"github.com/charmbracelet/log"

	"github.com/unbound-force/fixcheck/internal/config"
	"github.com/unbound-force/fixcheck/internal/expect"
	"github.com/unbound-force/fixcheck/internal/refcache"
	"github.com/unbound-force/fixcheck/internal/solution"
)

// Option configures a verification call.
type Option func(*options)

type options struct {
	settings *config.FixcheckConfig
	refs     []solution.Reference
	title    string
	logger   *log.Logger
	expected []expect.Expected
	name     string
	pkgPath  string
	cache    *refcache.Cache
}

func newOptions(opts []Option) *options {
	o := &options{settings: config.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	for _, path := range o.settings.References {
		o.refs = append(o.refs, solution.Reference{Path: path})
	}
	return o
}

// WithSettings replaces the default settings. References listed in
// the settings are added to those given by WithReferences.
func WithSettings(s *Settings) Option {
	return func(o *options) {
		if s != nil {
			o.settings = s
		}
	}
}

// WithReferences adds references by import path or simple standard
// library name.
func WithReferences(paths ...string) Option {
	return func(o *options) {
		for _, p := range paths {
			o.refs = append(o.refs, solution.Reference{Path: p})
		}
	}
}

// WithActionTitle selects the code action by title when a provider
// proposes several.
func WithActionTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithLogger enables debug tracing of fix runs.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithExpected sets the expected diagnostics of fix runs. Without
// it, fix runs only check the marker positions.
func WithExpected(e ...Expected) Option {
	return func(o *options) { o.expected = append(o.expected, e...) }
}

// WithName labels the result. Defaults to the first document name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPackagePath sets the import path of the package under test.
func WithPackagePath(path string) Option {
	return func(o *options) { o.pkgPath = path }
}

// WithCache resolves references through c instead of the process-wide
// cache.
func WithCache(c *refcache.Cache) Option {
	return func(o *options) { o.cache = c }
}
