// Package pathmatch implements the framework's parameterized path pattern
// grammar: literal segments, ":name" captures, and a single trailing "*"
// that greedily captures the remainder.
package pathmatch

import (
	"strings"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind    segmentKind
	literal string // segLiteral
	name    string // segParam
}

// Pattern is a compiled path pattern ready for matching.
type Pattern struct {
	raw      string
	segments []segment
	wildcard bool // true if the last segment is "*"
}

// String returns the pattern's original source text.
func (p *Pattern) String() string { return p.raw }

// Compile parses pattern into a Pattern, enforcing the grammar's invariants:
// no empty segments, at most one trailing "*", and no duplicate param names.
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, errs.New(errs.InvalidPattern, "pattern must be non-empty")
	}

	parts := strings.Split(pattern, "/")
	segs := make([]segment, 0, len(parts))
	seenParams := make(map[string]bool, len(parts))
	wildcard := false

	for i, part := range parts {
		if part == "" {
			return nil, errs.New(errs.InvalidPattern, "pattern %q has an empty segment", pattern)
		}

		if part == "*" {
			if i != len(parts)-1 {
				return nil, errs.New(errs.InvalidPattern, "pattern %q has '*' before the trailing position", pattern)
			}
			wildcard = true
			segs = append(segs, segment{kind: segWildcard})
			continue
		}

		if strings.HasPrefix(part, ":") {
			name := part[1:]
			if name == "" {
				return nil, errs.New(errs.InvalidPattern, "pattern %q has an empty param name", pattern)
			}
			if seenParams[name] {
				return nil, errs.New(errs.InvalidPattern, "pattern %q duplicates param name %q", pattern, name)
			}
			seenParams[name] = true
			segs = append(segs, segment{kind: segParam, name: name})
			continue
		}

		segs = append(segs, segment{kind: segLiteral, literal: part})
	}

	return &Pattern{raw: pattern, segments: segs, wildcard: wildcard}, nil
}

// MustCompile is Compile, panicking on error — for package-level route
// tables built from constant patterns known to be valid.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether path satisfies the pattern, returning captured
// params on success. A trailing "*" must capture at least one remaining
// segment.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, "/")

	if p.wildcard {
		fixed := p.segments[:len(p.segments)-1]
		if len(parts) <= len(fixed) {
			return nil, false
		}
	} else if len(parts) != len(p.segments) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range p.segments {
		switch seg.kind {
		case segLiteral:
			if parts[i] != seg.literal {
				return nil, false
			}
		case segParam:
			if parts[i] == "" {
				return nil, false
			}
			params[seg.name] = parts[i]
		case segWildcard:
			rest := strings.Join(parts[i:], "/")
			if rest == "" {
				return nil, false
			}
			params["*"] = rest
		}
	}

	return params, true
}

// Specificity scores a pattern for tie-breaking among equal-priority routes:
// more literal segments first, then fewer wildcard segments.
func (p *Pattern) Specificity() (literals int, wildcards int) {
	for _, seg := range p.segments {
		switch seg.kind {
		case segLiteral:
			literals++
		case segWildcard:
			wildcards++
		}
	}
	return literals, wildcards
}
