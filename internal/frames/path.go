// Package frames resolves caller-supplied frame paths against the live frame
// tree and synthesizes selectors for frame owner elements.
package frames

import "strings"

// Delimiter separates the iframe-owner selectors of a frame path.
const Delimiter = ">>"

// Path is an ordered chain of iframe-owner selectors, outermost first. The
// empty path addresses the top-level document.
type Path []string

// Parse splits a raw frame path on the delimiter, trimming whitespace around
// each segment and discarding empty ones. An input with no segments parses
// to nil, the top-level document.
func Parse(raw string) Path {
	var segs Path
	for _, p := range strings.Split(raw, Delimiter) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		segs = append(segs, p)
	}
	return segs
}

// Key returns the identity used to namespace the reference store. Two paths
// that differ only in whitespace around the delimiter share a key; the empty
// string is reserved for the top-level document.
func (p Path) Key() string {
	return strings.Join(p, Delimiter)
}

// IsTop reports whether the path addresses the top-level document.
func (p Path) IsTop() bool { return len(p) == 0 }

// Innermost returns the final selector of the chain, or "" for the top.
func (p Path) Innermost() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) String() string { return p.Key() }
