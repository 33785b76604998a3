package linecount

import (
	"fmt"
	"strings"
)

// ExcludeMode selects how exclusion patterns are matched against paths.
type ExcludeMode string

const (
	// ExcludeSegment matches directory patterns against directory segments
	// and file patterns against the final segment.
	ExcludeSegment ExcludeMode = "segment"
	// ExcludeSubstring matches any pattern contained anywhere in the path.
	ExcludeSubstring ExcludeMode = "substring"
)

// DefaultExcludePatterns names build artifacts, dependency and tooling
// directories, and lockfiles. A trailing slash marks a directory.
var DefaultExcludePatterns = []string{
	".github/",
	"node_modules/",
	".git/",
	"dist/",
	"build/",
	"__pycache__/",
	".netlify/",
	".vscode/",
	"package-lock.json",
	"yarn.lock",
}

// ParseExcludeMode accepts "segment" (default when empty) or "substring".
func ParseExcludeMode(raw string) (ExcludeMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ExcludeSegment):
		return ExcludeSegment, nil
	case string(ExcludeSubstring):
		return ExcludeSubstring, nil
	default:
		return "", fmt.Errorf("unknown exclude mode %q", raw)
	}
}

// Decision is the outcome of filtering one path.
type Decision int

const (
	Keep Decision = iota
	Excluded
	Skipped
)

// Filter decides which listing entries are counted.
type Filter struct {
	mode     ExcludeMode
	patterns []string
	dirs     map[string]struct{}
	files    map[string]struct{}
}

// NewFilter builds a filter. Nil patterns means DefaultExcludePatterns.
func NewFilter(mode ExcludeMode, patterns []string) *Filter {
	if mode == "" {
		mode = ExcludeSegment
	}
	if patterns == nil {
		patterns = DefaultExcludePatterns
	}
	f := &Filter{
		mode:  mode,
		dirs:  make(map[string]struct{}),
		files: make(map[string]struct{}),
	}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f.patterns = append(f.patterns, p)
		if strings.HasSuffix(p, "/") {
			f.dirs[strings.Trim(p, "/")] = struct{}{}
		} else {
			f.files[p] = struct{}{}
		}
	}
	return f
}

func (f *Filter) Mode() ExcludeMode { return f.mode }

// IsExcluded reports whether p falls under an exclusion pattern.
func (f *Filter) IsExcluded(p string) bool {
	if f.mode == ExcludeSubstring {
		for _, pattern := range f.patterns {
			if strings.Contains(p, pattern) {
				return true
			}
		}
		return false
	}

	segments := strings.Split(strings.Trim(p, "/"), "/")
	last := len(segments) - 1
	for i, seg := range segments {
		if i < last {
			if _, ok := f.dirs[seg]; ok {
				return true
			}
			continue
		}
		if _, ok := f.files[seg]; ok {
			return true
		}
	}
	return false
}

// Classify runs the exclusion stage then the extension stage.
func (f *Filter) Classify(p string) (Decision, Category) {
	if f.IsExcluded(p) {
		return Excluded, ""
	}
	c, ok := CategoryFor(p)
	if !ok {
		return Skipped, ""
	}
	return Keep, c
}
