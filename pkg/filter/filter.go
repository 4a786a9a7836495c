package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

type Filter interface {
	Match(string) bool
}

// Compile turns a pattern list into a Filter that matches when any pattern
// matches. A nil Filter (no patterns) is returned as nil.
//
// Patterns wrapped in slashes are regular expressions, everything else is a
// glob with '/' as separator, so "*" stays inside one path component:
//
//	f, _ := Compile([]string{"/usr/lib/locale/**", "/\\.so\\.[0-9]+ \\(deleted\\)$/"})
//	f.Match("/usr/lib/locale/C.utf8/LC_CTYPE") // true (glob)
//	f.Match("/opt/x/libz.so.1 (deleted)")      // true (regex)
//	f.Match("/usr/lib/libz.so.1")              // false
func Compile(patterns []string) (Filter, error) {
	var globs []glob.Glob
	var regexes []*regexp.Regexp
	var literals []string

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		switch {
		case isRegexPattern(p):
			re, err := regexp.Compile(p[1 : len(p)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid regex %q: %w", p, err)
			}
			regexes = append(regexes, re)
		case HasMeta(p):
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid glob %q: %w", p, err)
			}
			globs = append(globs, g)
		default:
			literals = append(literals, p)
		}
	}

	if len(globs) == 0 && len(regexes) == 0 && len(literals) == 0 {
		return nil, nil
	}

	f := &patternFilter{globs: globs, regexes: regexes}
	if len(literals) > 0 {
		f.literals = make(map[string]struct{}, len(literals))
		for _, l := range literals {
			f.literals[l] = struct{}{}
		}
	}
	return f, nil
}

func isRegexPattern(s string) bool {
	return len(s) >= 2 && s[0] == '/' && s[len(s)-1] == '/' && !strings.HasPrefix(s, "//")
}

// HasMeta reports whether s contains any magic glob characters.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

type patternFilter struct {
	literals map[string]struct{}
	globs    []glob.Glob
	regexes  []*regexp.Regexp
}

func (f *patternFilter) Match(s string) bool {
	if _, ok := f.literals[s]; ok {
		return true
	}
	for _, g := range f.globs {
		if g.Match(s) {
			return true
		}
	}
	for _, re := range f.regexes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IncludeExcludeFilter passes strings matched by include (or everything when
// include is empty) and not matched by exclude.
type IncludeExcludeFilter struct {
	include Filter
	exclude Filter
}

func NewIncludeExcludeFilter(include, exclude []string) (*IncludeExcludeFilter, error) {
	in, err := Compile(include)
	if err != nil {
		return nil, err
	}

	ex, err := Compile(exclude)
	if err != nil {
		return nil, err
	}

	return &IncludeExcludeFilter{include: in, exclude: ex}, nil
}

func (f *IncludeExcludeFilter) Match(s string) bool {
	if f.include != nil && !f.include.Match(s) {
		return false
	}
	if f.exclude != nil && f.exclude.Match(s) {
		return false
	}
	return true
}
