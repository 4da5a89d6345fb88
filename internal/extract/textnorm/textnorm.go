// Package textnorm cleans text pasted from census and pharmacy exports before
// it reaches the line parsers.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// spaceLike maps the exotic space characters that show up in copy/paste from
// browser-rendered reports to a plain ASCII space.
var spaceLike = runes.Map(func(r rune) rune {
	switch r {
	case '\u00a0', '\u2007', '\u2009', '\u200a', '\u202f', '\u3000':
		return ' '
	case '\u2018', '\u2019':
		return '\''
	case '\u201c', '\u201d':
		return '"'
	case '\u2013', '\u2014':
		return '-'
	}
	return r
})

// controlChars drops control and format runes except newline and tab.
var controlChars = runes.Remove(runes.Predicate(func(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r) || r == '\ufeff' || r == '\u200b'
}))

// Clean normalizes line endings, applies NFKC, maps odd spaces and quotes to
// ASCII and removes control characters. It never fails; if the transform
// chain errors the input is returned with only line endings normalized.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	t := transform.Chain(norm.NFKC, spaceLike, controlChars)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Lines cleans text and returns its non-empty, trimmed lines.
func Lines(text string) []string {
	cleaned := Clean(text)
	raw := strings.Split(cleaned, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Fields splits s on whitespace. Kept here so every parser tokenizes the same way.
func Fields(s string) []string {
	return strings.Fields(s)
}
