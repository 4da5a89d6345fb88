package dates

import (
	"regexp"
	"strings"
)

// tokenRe matches date-like tokens embedded in a longer line. Numeric forms
// need a four-digit or two-digit year so dose ranges such as "3-0.375" and
// record numbers are not mistaken for dates.
var tokenRe = regexp.MustCompile(`(?i)\b(?:` +
	`\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}(?::\d{2})?)?` +
	`|\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}` +
	`|\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})` +
	`|\d{1,2}\.\d{1,2}\.(?:\d{4}|\d{2})` +
	`|\d{1,2}-\d{1,2}-(?:\d{4}|\d{2})` +
	`|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
	`|\d{1,2}[\s\-](?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*[\s\-]\d{2,4}` +
	`)\b`)

// Token is a date-like substring found in a line.
type Token struct {
	Raw   string
	Start int
	End   int
}

// FindTokens returns every date-like token in line, in order of appearance.
func FindTokens(line string) []Token {
	idx := tokenRe.FindAllStringIndex(line, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Token, 0, len(idx))
	for _, loc := range idx {
		out = append(out, Token{Raw: line[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return out
}

// FindAll returns the raw text of every date-like token in line.
func FindAll(line string) []string {
	toks := FindTokens(line)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Raw
	}
	return out
}

// ContainsDate reports whether line carries at least one date-like token.
func ContainsDate(line string) bool {
	return tokenRe.MatchString(line)
}

// Strip removes every date-like token from line and collapses whitespace.
func Strip(line string) string {
	return strings.Join(strings.Fields(tokenRe.ReplaceAllString(line, " ")), " ")
}
