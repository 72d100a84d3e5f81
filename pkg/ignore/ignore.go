// Package ignore decides which changed paths a watch session should not react to.
//
// Patterns are evaluated by github.com/moby/patternmatcher against paths
// relative to the watched root: `**` spans directories, a pattern matching a
// directory also matches everything below it, and a leading `!` re-includes a
// previously ignored path. A pattern without a `/` matches at any depth, so
// `*.pyc` covers `pkg/__pycache__/a.pyc`. Brace groups such as `src/{a,b}/**`
// expand into one pattern per alternative. Patterns are always written with
// forward slashes.
package ignore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devflow/devflow/errors"
	"github.com/moby/patternmatcher"
)

// probePath forces every pattern to compile its regular expression.
const probePath = "devflow-probe"

// Matcher is an immutable compiled ignore set. It is safe for concurrent use.
type Matcher struct {
	root     string
	patterns []string
	pm       *patternmatcher.PatternMatcher
}

// New compiles patterns for the tree rooted at root. The first malformed
// pattern aborts construction with an INVALID_PATTERN error naming it.
func New(root string, patterns []string) (*Matcher, error) {
	m := &Matcher{root: filepath.Clean(root)}

	native := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		expanded, err := expandBraces(p)
		if err != nil {
			return nil, errors.InvalidPattern(p, err)
		}
		for _, e := range expanded {
			n := filepath.FromSlash(anchor(e))
			if err := validate(n); err != nil {
				return nil, errors.InvalidPattern(p, err)
			}
			native = append(native, n)
		}
		m.patterns = append(m.patterns, p)
	}

	if len(native) == 0 {
		return m, nil
	}

	pm, err := patternmatcher.New(native)
	if err != nil {
		return nil, errors.InvalidPattern(strings.Join(m.patterns, ","), err)
	}
	m.pm = pm
	return m, nil
}

// anchor rewrites a pattern without a separator so it matches at any depth.
func anchor(pattern string) string {
	neg := strings.HasPrefix(pattern, "!")
	body := strings.TrimPrefix(pattern, "!")
	if body == "" || strings.Contains(body, "/") || strings.HasPrefix(body, "**") {
		return pattern
	}
	body = "**/" + body
	if neg {
		return "!" + body
	}
	return body
}

// expandBraces turns the first top-level `{a,b}` group into one pattern per
// alternative and recurses on each result. Backslash escapes a brace.
func expandBraces(pattern string) ([]string, error) {
	start, depth := -1, 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				return nil, fmt.Errorf("unmatched '}' at offset %d", i)
			}
			depth--
			if depth > 0 {
				continue
			}
			var out []string
			for _, alt := range splitAlternatives(pattern[start+1 : i]) {
				more, err := expandBraces(pattern[:start] + alt + pattern[i+1:])
				if err != nil {
					return nil, err
				}
				out = append(out, more...)
			}
			return out, nil
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unmatched '{' at offset %d", start)
	}
	return []string{pattern}, nil
}

// splitAlternatives splits a brace body on commas outside nested groups.
func splitAlternatives(body string) []string {
	var out []string
	depth, last := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, body[last:i])
				last = i + 1
			}
		}
	}
	return append(out, body[last:])
}

// validate compiles a single native pattern. patternmatcher only reports some
// syntax errors on first use, so a probe match is run as well.
func validate(pattern string) error {
	pm, err := patternmatcher.New([]string{pattern})
	if err != nil {
		return err
	}
	_, err = pm.MatchesOrParentMatches(probePath)
	return err
}

// Ignored reports whether path should be suppressed. Absolute paths below the
// root are made root-relative first; anything else is matched as given. The
// root itself is matched as ".", which `**` covers.
func (m *Matcher) Ignored(path string) bool {
	if m.pm == nil {
		return false
	}
	rel := m.Relative(path)
	matched, err := m.pm.MatchesOrParentMatches(rel)
	return err == nil && matched
}

// Relative returns path relative to the matcher's root, in native separator
// form. Paths outside the root are returned cleaned but otherwise unchanged.
func (m *Matcher) Relative(path string) string {
	p := filepath.Clean(filepath.FromSlash(path))
	if !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(m.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}

// Filter returns the subset of paths that are not ignored, preserving order.
func (m *Matcher) Filter(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !m.Ignored(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// CanPrune reports whether ignored directories may be left out of the OS
// watch entirely. Re-inclusion patterns can resurrect files below an ignored
// directory, so pruning is only safe without them.
func (m *Matcher) CanPrune() bool {
	return m.pm == nil || !m.pm.Exclusions()
}

// Patterns returns the compiled patterns as they were supplied.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// Empty reports whether the matcher ignores nothing.
func (m *Matcher) Empty() bool {
	return m.pm == nil
}
