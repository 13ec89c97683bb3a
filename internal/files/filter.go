// Package files selects the source files sent for review.
package files

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides whether a slash-separated path relative to the review root
// is reviewed. Ignore entries are doublestar patterns; a plain name such as
// "venv" is a pattern that matches only itself.
type Filter struct {
	Extension          string
	IgnoredDirectories []string
	IgnoredFiles       []string
}

// NewFilter validates every pattern up front so a typo fails the run instead
// of silently matching nothing.
func NewFilter(extension string, ignoredDirectories, ignoredFiles []string) (*Filter, error) {
	for _, p := range append(append([]string(nil), ignoredDirectories...), ignoredFiles...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return &Filter{
		Extension:          extension,
		IgnoredDirectories: ignoredDirectories,
		IgnoredFiles:       ignoredFiles,
	}, nil
}

// Match reports whether the file at rel should be reviewed.
func (f *Filter) Match(rel string) bool {
	rel = strings.TrimPrefix(path.Clean(rel), "./")
	name := path.Base(rel)

	if !strings.HasSuffix(name, f.Extension) {
		return false
	}
	if matchAny(f.IgnoredFiles, name) || matchAny(f.IgnoredFiles, rel) {
		return false
	}

	dir := path.Dir(rel)
	if dir == "." {
		return true
	}
	return !f.SkipDir(dir)
}

// SkipDir reports whether the directory at rel, or any directory above it,
// is ignored.
func (f *Filter) SkipDir(rel string) bool {
	rel = strings.TrimPrefix(path.Clean(rel), "./")
	if rel == "." || rel == "" {
		return false
	}
	if matchAny(f.IgnoredDirectories, rel) {
		return true
	}
	for _, segment := range strings.Split(rel, "/") {
		if matchAny(f.IgnoredDirectories, segment) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
