package scanner

import (
	"strings"

	"golang.org/x/text/cases"
)

// Kind selects the table a scan reads.
type Kind int

const (
	KindMapping Kind = iota
	KindOpenFile
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindOpenFile:
		return "openfile"
	default:
		return "unknown"
	}
}

// Mode selects substring or exact comparison. ModeDefault resolves per Kind:
// substring for mappings, exact for open files.
type Mode int

const (
	ModeDefault Mode = iota
	ModeSubstring
	ModeExact
)

// Query is the predicate of a scan.
type Query struct {
	Pattern    string
	Mode       Mode
	IgnoreCase bool
}

// ExactMatch reports whether q compares whole candidates when used for kind.
func (q Query) ExactMatch(kind Kind) bool {
	switch q.Mode {
	case ModeExact:
		return true
	case ModeSubstring:
		return false
	default:
		return kind == KindOpenFile
	}
}

// Match reports whether candidate satisfies q under kind's default mode.
func (q Query) Match(kind Kind, candidate string) bool {
	return q.matcher(kind)(candidate)
}

// matcher folds the pattern once. The returned func owns its Caser and must
// not be shared between goroutines.
func (q Query) matcher(kind Kind) func(string) bool {
	exact := q.ExactMatch(kind)
	pattern := q.Pattern

	var fold cases.Caser
	if q.IgnoreCase {
		fold = cases.Fold()
		pattern = fold.String(pattern)
	}

	return func(candidate string) bool {
		if q.IgnoreCase {
			candidate = fold.String(candidate)
		}
		if exact {
			return candidate == pattern
		}
		return strings.Contains(candidate, pattern)
	}
}
