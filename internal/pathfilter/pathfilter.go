// Package pathfilter excludes tracked file paths that match shell glob patterns.
//
// Patterns follow fnmatch semantics: '*' matches any run of characters and
// '?' any single character, both including '/'. '[seq]' and '[!seq]' match a
// character in or not in seq. Every other character is literal. Matching is
// anchored to the whole path and always case-sensitive.
package pathfilter

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// neverMatch is a character class no rune can satisfy.
const neverMatch = `[^\x00-\x{10FFFF}]`

// Pattern is a compiled exclude glob.
type Pattern struct {
	glob string
	re   *regexp.Regexp
}

// Compile converts a glob pattern to an anchored regular expression.
// An unterminated '[' yields path.ErrBadPattern.
func Compile(glob string) (*Pattern, error) {
	expr, err := translate(glob)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, glob)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", path.ErrBadPattern, glob, err)
	}

	return &Pattern{glob: glob, re: re}, nil
}

// String returns the source glob.
func (p *Pattern) String() string {
	return p.glob
}

// Match reports whether the whole of name matches the pattern.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(name)
}

// Filter holds a precompiled set of exclude patterns.
// It is immutable after New and safe for concurrent use.
type Filter struct {
	patterns []*Pattern
	invalid  []string
}

// New compiles patterns in order. Malformed patterns are kept aside and never
// match anything, so one bad pattern cannot abort a run.
func New(patterns []string) *Filter {
	f := &Filter{}
	for _, glob := range patterns {
		p, err := Compile(glob)
		if err != nil {
			f.invalid = append(f.invalid, glob)
			continue
		}
		f.patterns = append(f.patterns, p)
	}
	return f
}

// Invalid returns the patterns that failed to compile.
func (f *Filter) Invalid() []string {
	return append([]string(nil), f.invalid...)
}

// Excluded reports whether any pattern matches name.
func (f *Filter) Excluded(name string) bool {
	for _, p := range f.patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// FilterPaths returns the paths no pattern matches, in input order.
// Duplicates are kept and the input slice is never modified.
func (f *Filter) FilterPaths(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, name := range paths {
		if !f.Excluded(name) {
			kept = append(kept, name)
		}
	}
	return kept
}

// FilterExcluded returns the elements of paths matched by none of patterns.
func FilterExcluded(paths, patterns []string) []string {
	return New(patterns).FilterPaths(paths)
}

// translate mirrors fnmatch's glob-to-regexp conversion.
func translate(glob string) (string, error) {
	var b strings.Builder
	b.WriteString(`(?s)\A`)

	for i := 0; i < len(glob); {
		r, size := utf8.DecodeRuneInString(glob[i:])
		i += size

		switch r {
		case '*':
			for i < len(glob) && glob[i] == '*' {
				i++
			}
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			class, n, err := translateClass(glob[i:])
			if err != nil {
				return "", err
			}
			b.WriteString(class)
			i += n
		default:
			b.WriteString(regexp.QuoteMeta(glob[i-size : i]))
		}
	}

	b.WriteString(`\z`)
	return b.String(), nil
}

// translateClass converts the body of a bracket expression, s being the text
// after the opening '['. It returns the regexp class and the bytes consumed,
// closing bracket included.
func translateClass(s string) (string, int, error) {
	j := 0
	negate := false
	if j < len(s) && s[j] == '!' {
		negate = true
		j++
	}
	// A ']' right after '[' or '[!' is literal.
	start := j
	if j < len(s) && s[j] == ']' {
		j++
	}
	end := strings.IndexByte(s[j:], ']')
	if end < 0 {
		return "", 0, path.ErrBadPattern
	}
	end += j

	body := []rune(s[start:end])
	var items strings.Builder
	for k := 0; k < len(body); k++ {
		lo := body[k]
		if k+2 < len(body) && body[k+1] == '-' {
			hi := body[k+2]
			k += 2
			if lo > hi {
				continue
			}
			items.WriteString(escapeClassRune(lo))
			items.WriteByte('-')
			items.WriteString(escapeClassRune(hi))
			continue
		}
		items.WriteString(escapeClassRune(lo))
	}

	consumed := end + 1
	switch {
	case items.Len() == 0 && negate:
		return ".", consumed, nil
	case items.Len() == 0:
		return neverMatch, consumed, nil
	case negate:
		return "[^" + items.String() + "]", consumed, nil
	default:
		return "[" + items.String() + "]", consumed, nil
	}
}

func escapeClassRune(r rune) string {
	switch r {
	case '\\', ']', '[', '^', '-':
		return `\` + string(r)
	}
	return string(r)
}
