package flowtree

import (
	"strings"

	"github.com/wippyai/flowtree/internal/options"
)

// CallMatcher recognises calls by callee name. Callee names may be
// qualified ("runtime.bubble"); the qualifier is everything before the
// last dot.
type CallMatcher = options.CallMatcher

func splitCallee(callee string) (qualifier, name string) {
	if i := strings.LastIndexByte(callee, '.'); i >= 0 {
		return callee[:i], callee[i+1:]
	}
	return "", callee
}

// ExactMatcher matches exact "qualifier.name" or just "name" patterns.
type ExactMatcher struct {
	patterns map[string]bool
}

// NewExactMatcher creates a matcher from a list of patterns.
// Patterns can be "name" (matches under any qualifier) or
// "qualifier.name" (exact match).
func NewExactMatcher(patterns []string) *ExactMatcher {
	m := &ExactMatcher{patterns: make(map[string]bool)}
	for _, p := range patterns {
		m.patterns[p] = true
	}
	return m
}

// Match returns true if the callee matches any pattern.
func (m *ExactMatcher) Match(callee string) bool {
	if m.patterns[callee] {
		return true
	}
	_, name := splitCallee(callee)
	return m.patterns[name]
}

// WildcardMatcher matches callee patterns with wildcard support.
//
// Supports patterns like:
//   - "qualifier.name" - exact match
//   - "name" - matches this name under any qualifier
//   - "qualifier.*" - matches every callee under the qualifier
//   - "*" - matches everything
type WildcardMatcher struct {
	exact     map[string]bool // exact "qualifier.name" matches
	names     map[string]bool // unqualified "name" matches
	qualWilds map[string]bool // "qualifier.*" matches
	matchAll  bool            // "*" matches everything
}

// NewWildcardMatcher creates a matcher with wildcard support.
func NewWildcardMatcher(patterns []string) *WildcardMatcher {
	m := &WildcardMatcher{
		exact:     make(map[string]bool),
		names:     make(map[string]bool),
		qualWilds: make(map[string]bool),
	}
	for _, p := range patterns {
		if p == "*" {
			m.matchAll = true
		} else if strings.HasSuffix(p, ".*") {
			m.qualWilds[strings.TrimSuffix(p, ".*")] = true
		} else if strings.Contains(p, ".") {
			m.exact[p] = true
		} else {
			m.names[p] = true
		}
	}
	return m
}

// Match returns true if the callee matches any pattern.
func (m *WildcardMatcher) Match(callee string) bool {
	if m.matchAll {
		return true
	}
	qualifier, name := splitCallee(callee)
	if qualifier != "" && m.qualWilds[qualifier] {
		return true
	}
	if m.exact[callee] {
		return true
	}
	return m.names[name]
}

// PrefixMatcher matches callees by name prefix.
type PrefixMatcher struct {
	prefixes []string
}

// NewPrefixMatcher creates a matcher that matches callees starting with
// any prefix.
func NewPrefixMatcher(prefixes []string) *PrefixMatcher {
	return &PrefixMatcher{prefixes: prefixes}
}

// Match returns true if the callee starts with any prefix.
func (m *PrefixMatcher) Match(callee string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(callee, p) {
			return true
		}
	}
	return false
}

// CompositeMatcher combines multiple matchers.
type CompositeMatcher struct {
	matchers []CallMatcher
}

// NewCompositeMatcher creates a matcher that matches if any sub-matcher
// matches. Nil matchers are skipped.
func NewCompositeMatcher(matchers ...CallMatcher) *CompositeMatcher {
	m := &CompositeMatcher{}
	for _, sub := range matchers {
		if sub != nil {
			m.matchers = append(m.matchers, sub)
		}
	}
	return m
}

// Match returns true if any sub-matcher matches.
func (m *CompositeMatcher) Match(callee string) bool {
	for _, matcher := range m.matchers {
		if matcher.Match(callee) {
			return true
		}
	}
	return false
}
