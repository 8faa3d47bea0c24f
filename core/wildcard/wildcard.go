// Package wildcard matches qualified API names against exclusion patterns.
//
// Only two metacharacters are recognized: '*' matches any run of characters
// (including none, and including dots) and '?' matches exactly one
// character. A pattern must match the whole name.
package wildcard

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled wildcard pattern.
type Pattern struct {
	raw        string
	isWildcard bool
	ignoreCase bool
	glob       glob.Glob
}

// IsWildcard reports whether s contains a wildcard metacharacter.
func IsWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// Compile compiles raw. When ignoreCase is set, matching folds case on
// both sides.
func Compile(raw string, ignoreCase bool) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	p := Pattern{raw: raw, isWildcard: IsWildcard(raw), ignoreCase: ignoreCase}
	if !p.isWildcard {
		return p, nil
	}
	src := translate(raw)
	if ignoreCase {
		src = strings.ToLower(src)
	}
	g, err := glob.Compile(src)
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling pattern %q: %w", raw, err)
	}
	p.glob = g
	return p, nil
}

// MustCompile is like Compile but panics on error. Patterns are expected to
// have been validated with the configuration.
func MustCompile(raw string, ignoreCase bool) Pattern {
	p, err := Compile(raw, ignoreCase)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether name matches the whole pattern.
func (p Pattern) Match(name string) bool {
	if !p.isWildcard {
		if p.ignoreCase {
			return strings.EqualFold(p.raw, name)
		}
		return p.raw == name
	}
	if p.glob == nil {
		return false
	}
	if p.ignoreCase {
		name = strings.ToLower(name)
	}
	return p.glob.Match(name)
}

// translate escapes every glob metacharacter except '*' and '?'. Without
// separators, gobwas/glob lets '*' cross dots.
func translate(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 4)
	for _, r := range raw {
		switch r {
		case '[', ']', '{', '}', '\\', '!', ',', '-', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Set is an ordered collection of patterns.
type Set struct {
	patterns []Pattern
}

// CompileSet compiles raws in order, stopping at the first error.
func CompileSet(raws []string, ignoreCase bool) (Set, error) {
	s := Set{patterns: make([]Pattern, 0, len(raws))}
	for _, raw := range raws {
		p, err := Compile(raw, ignoreCase)
		if err != nil {
			return Set{}, err
		}
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// Match returns the first pattern matching name.
func (s Set) Match(name string) (Pattern, bool) {
	for _, p := range s.patterns {
		if p.Match(name) {
			return p, true
		}
	}
	return Pattern{}, false
}

// Len returns the number of patterns in the set.
func (s Set) Len() int {
	return len(s.patterns)
}
