// Package scaffold embeds a starter config and an example case file
// and writes them to a target project directory.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed assets/*
var assets embed.FS

// targets maps an embedded asset to its path in the target project.
var targets = map[string]string{
	"fixcheck.yaml": ".fixcheck.yaml",
	"example.txtar": filepath.Join("testdata", "fixcheck", "example.txtar"),
}

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites existing files when true.
	// When false, existing files are skipped.
	Force bool

	// Version is the fixcheck version string to embed in the
	// version marker comment. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Created lists files that were written for the first time.
	Created []string

	// Skipped lists files that already existed and were not
	// overwritten (Force was false).
	Skipped []string

	// Overwritten lists files that existed and were replaced
	// (Force was true).
	Overwritten []string
}

// versionMarker returns the comment prepended to each scaffolded
// file. Both assets start with a YAML section, so a YAML comment
// works for either.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by fixcheck %s\n", version)
}

// Run writes the starter config and the example case into the target
// directory:
//
//	.fixcheck.yaml
//	testdata/fixcheck/example.txtar
//
// Each file is prepended with a version marker comment. If a file
// already exists and opts.Force is false, the file is skipped. If
// opts.Force is true, the file is overwritten.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	goModPath := filepath.Join(opts.TargetDir, "go.mod")
	if _, err := os.Stat(goModPath); os.IsNotExist(err) {
		fmt.Fprintln(opts.Stdout, "Warning: no go.mod found in current directory.")
		fmt.Fprintln(opts.Stdout, "fixcheck works best in a Go module root.")
		fmt.Fprintln(opts.Stdout)
	}

	result := &Result{}
	marker := versionMarker(opts.Version)

	paths, err := AssetPaths()
	if err != nil {
		return nil, err
	}
	for _, name := range paths {
		rel, ok := targets[name]
		if !ok {
			return nil, fmt.Errorf("embedded asset %s has no target path", name)
		}
		outPath := filepath.Join(opts.TargetDir, rel)

		_, statErr := os.Stat(outPath)
		exists := statErr == nil

		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		content, err := AssetContent(name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded asset %s: %w", name, err)
		}

		dir := filepath.Dir(outPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}

		out := append([]byte(marker), content...)
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", rel, err)
		}

		if exists {
			result.Overwritten = append(result.Overwritten, rel)
		} else {
			result.Created = append(result.Created, rel)
		}
	}

	printSummary(opts.Stdout, result)

	return result, nil
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "fixcheck initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'fixcheck run testdata/fixcheck' to verify the example case.")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}

// AssetPaths returns the names of all embedded assets, sorted.
func AssetPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(assets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, strings.TrimPrefix(path, "assets/"))
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

// AssetContent returns the raw content of an embedded asset by name
// (e.g., "example.txtar").
func AssetContent(name string) ([]byte, error) {
	return assets.ReadFile("assets/" + name)
}
