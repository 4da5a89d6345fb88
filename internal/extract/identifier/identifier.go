// Package identifier canonicalizes facility record numbers (MRNs) so rows from
// the census and the pharmacy export can be joined even when one source keeps
// a facility prefix and the other drops it.
package identifier

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLen caps the canonical form.
const MaxLen = 20

var parenRe = regexp.MustCompile(`\(([^()]*)\)`)

// ID is a canonical record identifier plus the keys it can be joined on.
type ID struct {
	Canonical string   `json:"canonical"`
	Keys      []string `json:"keys"`
}

// Parse canonicalizes raw and derives its match keys.
func Parse(raw string) ID {
	c := Canonicalize(raw)
	return ID{Canonical: c, Keys: keysFor(c)}
}

// Canonicalize prefers the contents of a parenthesized segment, strips every
// non-alphanumeric rune, upper-cases and truncates to MaxLen.
func Canonicalize(raw string) string {
	candidate := raw
	if m := parenRe.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	var b strings.Builder
	for _, r := range candidate {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() == MaxLen {
				break
			}
		}
	}
	return b.String()
}

// MatchKeys returns the canonical form and, when it differs, its digits-only
// variant. An empty canonical form yields no keys.
func MatchKeys(raw string) []string {
	return keysFor(Canonicalize(raw))
}

func keysFor(canonical string) []string {
	if canonical == "" {
		return nil
	}
	keys := []string{canonical}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, canonical)
	if digits != "" && digits != canonical {
		keys = append(keys, digits)
	}
	return keys
}

// Match is a parenthesized identifier located on a line.
type Match struct {
	Raw   string // text inside the parentheses
	Start int    // index of '('
	End   int    // index just past ')'
}

// FindParenthesized returns the first parenthesized token on line that
// contains a digit. Nicknames such as "(JACK)" are skipped.
func FindParenthesized(line string) (Match, bool) {
	for _, loc := range parenRe.FindAllStringSubmatchIndex(line, -1) {
		inner := line[loc[2]:loc[3]]
		if !strings.ContainsAny(inner, "0123456789") {
			continue
		}
		if Canonicalize(inner) == "" {
			continue
		}
		return Match{Raw: inner, Start: loc[0], End: loc[1]}, true
	}
	return Match{}, false
}
