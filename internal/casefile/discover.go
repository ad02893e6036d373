package casefile

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unbound-force/fixcheck/internal/config"
)

// Discover walks root and returns the paths of every case file that
// passes Filter, sorted. The walk is bounded by cfg.Cases.Timeout when
// non-zero; hidden directories are skipped.
func Discover(ctx context.Context, root string, cfg *config.FixcheckConfig) ([]string, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	timeout := cfg.Cases.Timeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("case discovery stopped: %w", ctxErr)
		}
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			base := d.Name()
			if strings.HasPrefix(base, ".") && base != "." && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), Extension) {
			return nil
		}
		if !Filter(rel, cfg) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// Filter reports whether the case at rel, relative to the discovery
// root, should run.
//
// Logic:
//  1. If include patterns are set, the file must match at least one.
//  2. If the file matches any exclude pattern, it is excluded.
//  3. Otherwise, the file is included.
func Filter(rel string, cfg *config.FixcheckConfig) bool {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	rel = filepath.ToSlash(rel)

	if len(cfg.Cases.Include) > 0 {
		matched := false
		for _, pattern := range cfg.Cases.Include {
			if matchGlob(pattern, rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range cfg.Cases.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	return true
}

// matchGlob matches a slash-separated path against a glob. Patterns
// ending in "/**" match everything under that directory; patterns
// without a slash also match the base name.
func matchGlob(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}

	if matched, err := filepath.Match(pattern, rel); err == nil && matched {
		return true
	}

	if !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(rel))
		return err == nil && matched
	}
	return false
}
