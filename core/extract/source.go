// Package extract — image source rules.
// Normalizes image sources and keeps the set of sources already accepted,
// so a later strategy never re-adds an image a previous one found.
package extract

import "strings"

// NormalizeSource resolves protocol-relative sources to https and reports
// whether the result is acceptable. Sources that are not http(s) after the
// rewrite, or that mention svg anywhere, are rejected.
func NormalizeSource(src string) (string, bool) {
	if src == "" {
		return "", false
	}
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	if !strings.HasPrefix(src, "http") {
		return "", false
	}
	if strings.Contains(strings.ToLower(src), "svg") {
		return "", false
	}
	return src, true
}

// seenSet is the set of normalized sources accepted so far.
type seenSet struct {
	visited map[string]bool
}

func newSeenSet() *seenSet {
	return &seenSet{visited: make(map[string]bool)}
}

// Add records src and returns false if it was already present.
func (s *seenSet) Add(src string) bool {
	if s.visited[src] {
		return false
	}
	s.visited[src] = true
	return true
}

// Has reports whether src was added before.
func (s *seenSet) Has(src string) bool {
	return s.visited[src]
}
