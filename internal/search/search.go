// Package search builds line predicates from user queries and applies
// level, text, and date-range filters to classified lines.
package search

import (
	"regexp"
	"strings"
)

// delimitedRe recognizes the /pattern/flags query form.
var delimitedRe = regexp.MustCompile(`^/(.+)/([gimsuy]*)$`)

// Matcher is a compiled search query.
type Matcher struct {
	re    *regexp.Regexp
	query string
}

// Span is an inclusive byte range [Start, End] of a match within a line.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// BuildMatcher compiles a query. It returns nil when the query is empty or is
// an invalid delimited regular expression; nil means "no filtering".
func BuildMatcher(query string) *Matcher {
	if query == "" {
		return nil
	}

	if m := delimitedRe.FindStringSubmatch(query); m != nil {
		re, err := regexp.Compile(regexFlags(m[2]) + m[1])
		if err != nil {
			return nil
		}
		return &Matcher{re: re, query: query}
	}

	return &Matcher{
		re:    regexp.MustCompile("(?i)" + regexp.QuoteMeta(query)),
		query: query,
	}
}

// regexFlags translates trailing query flags into an RE2 inline flag group.
// No flags at all means case-insensitive; g, u and y have no RE2 meaning.
func regexFlags(flags string) string {
	if flags == "" {
		return "(?i)"
	}
	var b strings.Builder
	for _, f := range "ims" {
		if strings.ContainsRune(flags, f) {
			b.WriteRune(f)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "(?" + b.String() + ")"
}

// Match reports whether line contains a match. A nil Matcher matches everything.
func (m *Matcher) Match(line string) bool {
	if m == nil {
		return true
	}
	return m.re.MatchString(line)
}

// Highlight returns every match in line as inclusive spans, in order.
// The scan stops at the first zero-length match.
func (m *Matcher) Highlight(line string) []Span {
	if m == nil {
		return nil
	}
	var spans []Span
	for _, loc := range m.re.FindAllStringIndex(line, -1) {
		if loc[0] == loc[1] {
			break
		}
		spans = append(spans, Span{Start: loc[0], End: loc[1] - 1})
	}
	return spans
}

// String returns the original query.
func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.query
}
