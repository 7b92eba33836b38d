package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var alwaysSkippedDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
}

var typicalSkippedDirs = map[string]struct{}{
	"dist":        {},
	"build":       {},
	"target":      {},
	"out":         {},
	".venv":       {},
	"__pycache__": {},
}

var typicalExcludePatterns = []string{"*.min.*", "*.map"}

// CompilePathRegex compiles --path-regex values; a file is kept when any matches.
func CompilePathRegex(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		rx, err := regexp.Compile(trimmed)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rx)
	}
	return compiled, nil
}

func matchAny(rx []*regexp.Regexp, text string) bool {
	if len(rx) == 0 {
		return true
	}
	for _, r := range rx {
		if r.MatchString(text) {
			return true
		}
	}
	return false
}

// matchExclude reports whether the slash-separated rel path is excluded by
// pattern. "dir/**" excludes a whole subtree; patterns without a slash also
// match the base name.
func matchExclude(rel, pattern string) bool {
	p := strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(pattern)), "./")
	if p == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(p, "/**"); ok {
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}
	if ok, _ := path.Match(p, rel); ok {
		return true
	}
	if !strings.Contains(p, "/") {
		ok, _ := path.Match(p, path.Base(rel))
		return ok
	}
	return false
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if matchExclude(rel, p) {
			return true
		}
	}
	return false
}

type candidate struct {
	rel  string
	full string
}

// collectFiles expands o.Paths into a sorted, de-duplicated file list.
func collectFiles(ctx context.Context, o Options) ([]candidate, []ItemError) {
	excludes := append([]string(nil), o.Excludes...)
	if o.ExcludeTypical {
		excludes = append(excludes, typicalExcludePatterns...)
	}
	roots := o.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}

	seen := make(map[string]struct{})
	var out []candidate
	var errs []ItemError

	add := func(full string) {
		rel := relPath(o.Root, full)
		if _, dup := seen[rel]; dup {
			return
		}
		if excluded(rel, excludes) || !matchAny(o.PathRegexCompiled, rel) {
			return
		}
		seen[rel] = struct{}{}
		out = append(out, candidate{rel: rel, full: full})
	}

	for _, root := range roots {
		full := root
		if !filepath.IsAbs(full) {
			full = filepath.Join(o.Root, root)
		}
		info, err := os.Stat(full)
		if err != nil {
			errs = append(errs, newItemError(filepath.ToSlash(root), "walk", err))
			continue
		}
		if !info.IsDir() {
			add(full)
			continue
		}
		err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				errs = append(errs, newItemError(relPath(o.Root, p), "walk", err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if p == full {
					return nil
				}
				if skipDir(d.Name(), o.ExcludeTypical) || excluded(relPath(o.Root, p), excludes) {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(p)
			}
			return nil
		})
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, errs
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, errs
}

func skipDir(name string, typical bool) bool {
	if _, ok := alwaysSkippedDirs[name]; ok {
		return true
	}
	if typical {
		_, ok := typicalSkippedDirs[name]
		return ok
	}
	return false
}

func relPath(root, full string) string {
	base := root
	if base == "" {
		base = "."
	}
	if rel, err := filepath.Rel(base, full); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(full)
}
