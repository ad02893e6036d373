package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/unbound-force/fixcheck/internal/analyzers"
	"github.com/unbound-force/fixcheck/internal/casefile"
	"github.com/unbound-force/fixcheck/internal/codeassert"
	"github.com/unbound-force/fixcheck/internal/config"
	"github.com/unbound-force/fixcheck/internal/loader"
	"github.com/unbound-force/fixcheck/internal/report"
	"github.com/unbound-force/fixcheck/internal/scaffold"
	"github.com/unbound-force/fixcheck/internal/taxonomy"
	"github.com/unbound-force/fixcheck/internal/verifyerr"
	"github.com/unbound-force/fixcheck/verify"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	verify.Version = version

	root := &cobra.Command{
		Use:   "fixcheck",
		Short: "fixcheck: verify Go analyzers and their code fixes",
		Long: `fixcheck runs analyzers against annotated source, checks the
reported diagnostics against the marked positions, applies the
offered code fixes and compares the result with the expected code.`,
		Version: version,
	}

	var debug bool
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if debug {
			logger.SetLevel(charmlog.DebugLevel)
		}
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newValidCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newAnalyzersCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config at path, or the one found in the
// working directory when path is empty.
func loadConfig(path string) (*config.FixcheckConfig, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		path = config.Find(cwd)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return cfg, cfg.Validate()
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
	return nil
}

func writeResults(w io.Writer, format string, results []taxonomy.VerificationResult, verbose bool) error {
	switch format {
	case "json":
		return report.WriteJSON(w, results, version)
	default:
		return report.WriteText(w, results, report.TextOptions{Verbose: verbose})
	}
}

// runParams holds the parsed flags for the run command.
type runParams struct {
	paths       []string
	format      string
	configPath  string
	jobs        int
	verbose     bool
	interactive bool
	stdout      io.Writer
}

// caseRef is a case file to run and the label it is reported under.
type caseRef struct {
	path string
	name string
}

// runCases is the extracted, testable body of the run command.
func runCases(ctx context.Context, p runParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}
	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}
	if p.jobs > 0 {
		cfg.Jobs = p.jobs
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = runtime.NumCPU()
	}

	refs, err := collectCases(ctx, p.paths, cfg)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		logger.Warn("no case files found", "paths", p.paths)
		return nil
	}
	logger.Info("running cases", "count", len(refs), "jobs", cfg.Jobs)

	var debugLogger *charmlog.Logger
	if logger.GetLevel() <= charmlog.DebugLevel {
		debugLogger = logger
	}

	results := make([]taxonomy.VerificationResult, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = runOne(gctx, ref, cfg, debugLogger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sum := report.Summarize(results)
	logger.Info("run complete", "passed", sum.Passed, "failed", sum.Failed)

	if p.interactive {
		if isTerminal(p.stdout) {
			if err := runInteractive(results); err != nil {
				return err
			}
			return failedError(sum)
		}
		logger.Warn("interactive mode needs a terminal; writing text output")
	}

	if err := writeResults(p.stdout, p.format, results, p.verbose); err != nil {
		return err
	}
	return failedError(sum)
}

func failedError(sum report.Summary) error {
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d case(s) failed", sum.Failed, sum.Total)
	}
	return nil
}

// collectCases expands the run arguments into case files. Files are
// taken as given; directories are searched with casefile.Discover.
func collectCases(ctx context.Context, paths []string, cfg *config.FixcheckConfig) ([]caseRef, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	var refs []caseRef
	for _, arg := range paths {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			refs = append(refs, caseRef{path: arg, name: filepath.ToSlash(arg)})
			continue
		}
		found, err := casefile.Discover(ctx, arg, cfg)
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			name := path
			if rel, err := filepath.Rel(arg, path); err == nil {
				name = rel
			}
			refs = append(refs, caseRef{path: path, name: filepath.ToSlash(name)})
		}
	}
	return refs, nil
}

// runOne runs a single case. Cases that cannot be loaded or started
// are reported as failed results.
func runOne(ctx context.Context, ref caseRef, cfg *config.FixcheckConfig, debug *charmlog.Logger) taxonomy.VerificationResult {
	c, err := casefile.Load(ref.path)
	if err != nil {
		return startFailure(ref.name, "", "", verifyerr.Wrap(verifyerr.Format, "loading case", err))
	}
	c.Name = ref.name

	res, err := casefile.Run(ctx, c, casefile.RunOptions{Config: cfg, Logger: debug})
	if res == nil {
		return startFailure(ref.name, c.Header.Mode, c.Header.Analyzer, err)
	}
	if err != nil {
		logger.Debug("case failed", "case", ref.name, "err", err)
	}
	return *res
}

func startFailure(name string, mode taxonomy.Mode, analyzer string, err error) taxonomy.VerificationResult {
	kind := verifyerr.KindOf(err)
	if kind == "" {
		kind = verifyerr.Collaborator
	}
	return taxonomy.VerificationResult{
		ID:       taxonomy.GenerateID(name, mode, analyzer),
		Name:     name,
		Mode:     mode,
		Analyzer: analyzer,
		Failure:  &taxonomy.Failure{Kind: string(kind), Message: err.Error()},
		Metadata: taxonomy.Metadata{Version: version},
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRunCmd() *cobra.Command {
	var (
		format      string
		configPath  string
		jobs        int
		verbose     bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run verification case files",
		Long: `Run every .txtar case file found under the given paths
(default: the current directory). Cases run concurrently; the
command fails when any case fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCases(cmd.Context(), runParams{
				paths:       args,
				format:      format,
				configPath:  configPath,
				jobs:        jobs,
				verbose:     verbose,
				interactive: interactive,
				stdout:      os.Stdout,
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().StringVar(&configPath, "config", "",
		"path to config file (default: .fixcheck.yaml in the working directory)")
	cmd.Flags().IntVar(&jobs, "jobs", 0,
		"number of cases run concurrently (default: from config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"show diagnostics and fixes of passing cases")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")

	return cmd
}

// validParams holds the parsed flags for the valid command.
type validParams struct {
	pattern    string
	analyzer   string
	format     string
	configPath string
	stdout     io.Writer
}

// runValid is the extracted, testable body of the valid command.
func runValid(ctx context.Context, p validParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}
	entry, err := analyzers.Lookup(p.analyzer)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}

	logger.Info("loading package", "pkg", p.pattern)
	pkg, err := loader.Load(p.pattern)
	if err != nil {
		return err
	}

	refs := make([]string, len(pkg.References))
	for i, r := range pkg.References {
		refs[i] = r.Path
	}
	res, err := verify.Valid(ctx, entry.Engine(), pkg.Sources,
		verify.WithSettings(cfg),
		verify.WithReferences(refs...),
		verify.WithPackagePath(pkg.PkgPath),
		verify.WithName(pkg.PkgPath))
	if res == nil {
		return err
	}

	if werr := writeResults(p.stdout, p.format, []taxonomy.VerificationResult{*res}, true); werr != nil {
		return werr
	}
	return err
}

func newValidCmd() *cobra.Command {
	var (
		analyzer   string
		format     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "valid [package]",
		Short: "Check that an analyzer reports nothing on a package",
		Long: `Load a Go package from disk, run the named analyzer on it and
fail when it reports any diagnostic or the package does not compile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValid(cmd.Context(), validParams{
				pattern:    args[0],
				analyzer:   analyzer,
				format:     format,
				configPath: configPath,
				stdout:     os.Stdout,
			})
		},
	}

	cmd.Flags().StringVarP(&analyzer, "analyzer", "a", "",
		"registered analyzer name (see 'fixcheck analyzers')")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().StringVar(&configPath, "config", "",
		"path to config file")
	_ = cmd.MarkFlagRequired("analyzer")

	return cmd
}

// runCompare is the extracted, testable body of the compare command.
func runCompare(stdout io.Writer, expectedPath, actualPath string) error {
	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		return err
	}
	actual, err := os.ReadFile(actualPath)
	if err != nil {
		return err
	}

	if err := codeassert.EqualNamed(actualPath, string(expected), string(actual)); err != nil {
		var ve *verifyerr.Error
		if errors.As(err, &ve) {
			fmt.Fprintln(stdout, ve.Message)
		}
		return fmt.Errorf("%s and %s differ", expectedPath, actualPath)
	}
	fmt.Fprintln(stdout, "files are equal")
	return nil
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare EXPECTED ACTUAL",
		Short: "Compare two source files the way fix results are compared",
		Long: `Compare two files ignoring carriage returns and print the
first mismatching line with a caret under the first differing column.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newAnalyzersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyzers",
		Short: "List the analyzers case files can name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report.WriteAnalyzers(cmd.OutOrStdout(), analyzers.All())
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for fixcheck output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of fixcheck run --format=json output. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config and an example case",
		Long: `Write .fixcheck.yaml and testdata/fixcheck/example.txtar into
the current directory. Existing files are kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}
