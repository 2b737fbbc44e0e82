package parser

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeSpaces collapses every whitespace run (newlines included) into a
// single space and trims both ends.
func NormalizeSpaces(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Match is the outcome of MatchFirst.
type Match struct {
	Pattern string // source of the rule that matched
	Value   string // group 1, or the whole match when the rule has no group
}

// MatchFirst returns the capture of the first pattern that matches text.
// Earlier patterns always win, even when a later one would capture something
// more specific.
func MatchFirst(text string, patterns []*regexp.Regexp) (Match, bool) {
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		m := Match{Pattern: re.String()}
		if re.NumSubexp() > 0 {
			// loc[2] is -1 when group 1 did not take part in the match.
			if loc[2] >= 0 {
				m.Value = strings.TrimSpace(text[loc[2]:loc[3]])
			}
		} else {
			m.Value = strings.TrimSpace(text[loc[0]:loc[1]])
		}
		return m, true
	}
	return Match{}, false
}

// compileRules compiles rule sources as case-insensitive, dot-matches-newline
// expressions. It panics on a malformed rule.
func compileRules(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?is)` + expr)
	}
	return out
}
