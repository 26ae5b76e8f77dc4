// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package alias compiles resource aliases into boundary-anchored patterns
// that tolerate whitespace, dash and period variation.
package alias

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/pdiddy/resource-miner/pkg/types"
)

const (
	// boundaryBefore and boundaryAfter require a non-letter (or the text
	// edge) around the alias so "GEO" does not match inside "GEOlocation".
	boundaryBefore = `(?:^|[^\p{L}])`
	boundaryAfter  = `(?:[^\p{L}]|$)`

	whitespaceRun = `[\s\p{Zs}]+`
	dashClass     = `[\x{2D}\x{2010}\x{2011}\x{2012}\x{2013}\x{2014}\x{2212}]`
	optionalDot   = `\.?`
)

// isDash reports whether r is one of the dash-like characters treated as
// interchangeable in aliases.
func isDash(r rune) bool {
	switch r {
	case '-', '‐', '‑', '‒', '–', '—', '−':
		return true
	}
	return false
}

// Fold returns the form of s used for case-insensitive matching: case
// folded, with full-width and half-width variants mapped to their
// canonical width.
func Fold(s string) string {
	return width.Fold.String(cases.Fold().String(s))
}

// Pattern converts an alias into a regular expression body: whitespace runs
// match one or more whitespace characters, any dash matches any dash, and a
// period is optional. Everything else matches literally.
func Pattern(alias string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range alias {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteString(whitespaceRun)
				inSpace = true
			}
			continue
		}
		inSpace = false
		switch {
		case isDash(r):
			b.WriteString(dashClass)
		case r == '.':
			b.WriteString(optionalDot)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

func compile(alias string) *regexp.Regexp {
	return regexp.MustCompile(boundaryBefore + Pattern(alias) + boundaryAfter)
}

// Matcher detects one alias of one resource. It is immutable and safe for
// concurrent use.
type Matcher struct {
	ResourceID    string
	Resource      string
	Alias         string
	CaseSensitive bool

	re     *regexp.Regexp // folded alias, or exact alias when CaseSensitive
	strict *regexp.Regexp // exact alias, for precision escalation
}

// NewMatcher compiles a matcher for alias of resource r.
func NewMatcher(r types.Resource, alias string, caseSensitive bool) *Matcher {
	m := &Matcher{
		ResourceID:    r.ID,
		Resource:      r.Name,
		Alias:         alias,
		CaseSensitive: caseSensitive,
		strict:        compile(alias),
	}
	if caseSensitive {
		m.re = m.strict
	} else {
		m.re = compile(Fold(alias))
	}
	return m
}

// Match reports whether the alias occurs in a text unit. raw is the
// unmodified text and folded its Fold form.
func (m *Matcher) Match(raw, folded string) bool {
	if m.CaseSensitive {
		return m.re.MatchString(raw)
	}
	return m.re.MatchString(folded)
}

// MatchStrict re-matches the alias case-sensitively against raw text.
func (m *Matcher) MatchStrict(raw string) bool {
	return m.strict.MatchString(raw)
}

// Set is the compiled matcher set for a vocabulary.
type Set struct {
	Matchers []*Matcher
}

// Compile builds one matcher per (resource, alias) pair. A resource is
// matched case-sensitively when it is flagged so or its primary name is in
// caseSensitive. Aliases are deduplicated case-insensitively per resource.
func Compile(vocab types.Vocabulary, caseSensitive []string) *Set {
	override := make(map[string]bool, len(caseSensitive))
	for _, name := range caseSensitive {
		override[name] = true
	}

	s := &Set{}
	for _, r := range vocab.Resources {
		cs := r.CaseSensitive || override[r.Name]
		seen := make(map[string]bool, len(r.Aliases))
		for _, a := range r.Aliases {
			key := Fold(a)
			if a == "" || seen[key] {
				continue
			}
			seen[key] = true
			s.Matchers = append(s.Matchers, NewMatcher(r, a, cs))
		}
	}
	return s
}

// Len returns the number of compiled matchers.
func (s *Set) Len() int { return len(s.Matchers) }

// Match returns every matcher whose alias occurs in text.
func (s *Set) Match(text string) []*Matcher {
	folded := Fold(text)
	var hits []*Matcher
	for _, m := range s.Matchers {
		if m.Match(text, folded) {
			hits = append(hits, m)
		}
	}
	return hits
}
