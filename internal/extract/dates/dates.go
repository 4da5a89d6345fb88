// Package dates normalizes date strings from census and pharmacy exports to
// canonical YYYY-MM-DD form.
//
// Upstream systems disagree on date encoding, so Normalize walks an ordered
// rule table and accepts the first rule that produces a plausible calendar
// date. An empty result means "unrecognized"; nothing in this package panics
// or returns an error for bad input.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	MinYear = 1900
	MaxYear = 2100

	isoLayout = "2006-01-02"
)

// rule is one stage of the normalization cascade.
type rule struct {
	name  string
	match func(s string) (string, bool)
}

var (
	isoRe        = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	isoTimeRe    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T ]\d{1,2}:\d{2}`)
	digitsRe     = regexp.MustCompile(`^\d{6,8}$`)
	ymdRe        = regexp.MustCompile(`^(\d{4})[/\-.\s]+(\d{1,2})[/\-.\s]+(\d{1,2})(?:\D|$)`)
	mdyRe        = regexp.MustCompile(`^(\d{1,2})[/\-.\s]+(\d{1,2})[/\-.\s]+(\d{4}|\d{2})(?:\D|$)`)
	monthFirstRe = regexp.MustCompile(`^([A-Za-z]{3,9})\.?[\s\-]+(\d{1,2})(?:st|nd|rd|th)?,?[\s\-]+(\d{4}|\d{2})(?:\D|$)`)
	dayFirstRe   = regexp.MustCompile(`^(\d{1,2})[\s\-]+([A-Za-z]{3,9})\.?,?[\s\-]+(\d{4}|\d{2})(?:\D|$)`)
)

// monthNames maps lower-case month names and abbreviations to month numbers.
var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// fallbackLayouts are tried by the last stage, in order.
var fallbackLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"Mon Jan 2 2006",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04 PM",
	"Jan 2 2006 3:04PM",
	"2 January 2006 15:04",
}

var rules = []rule{
	{"iso", matchISO},
	{"iso-datetime", matchISODateTime},
	{"yyyymmdd", matchCompactYMD},
	{"mmddyy", matchCompactMDY},
	{"y-m-d", matchYMD},
	{"m-d-y", matchMDY},
	{"month-first", matchMonthFirst},
	{"day-first", matchDayFirst},
	{"fallback", matchFallback},
}

// Normalize converts s to YYYY-MM-DD, or returns "" when no rule applies.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range rules {
		if out, ok := r.match(s); ok {
			return out
		}
	}
	return ""
}

// Rule reports which stage of the cascade recognizes s, or "" if none does.
// Useful for diagnostics when a nurse asks why a date was read a certain way.
func Rule(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range rules {
		if _, ok := r.match(s); ok {
			return r.name
		}
	}
	return ""
}

// Parse normalizes s and returns the date at midnight UTC.
func Parse(s string) (time.Time, bool) {
	iso := Normalize(s)
	if iso == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(isoLayout, iso)
	if err != nil {
		// Normalize accepts day 31 in short months; time.Parse does not.
		return time.Time{}, false
	}
	return t, true
}

// DaysInclusive returns the number of calendar days from start to end,
// counting both ends. It returns 0 if either date is missing or unparseable,
// or if end precedes start.
func DaysInclusive(start, end string) int {
	s, ok := Parse(start)
	if !ok {
		return 0
	}
	e, ok := Parse(end)
	if !ok {
		return 0
	}
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func format(y, m, d int) (string, bool) {
	if y < MinYear || y > MaxYear || m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// expandYear treats two-digit years as 20YY.
func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		return 2000 + y
	}
	return y
}

func matchISO(s string) (string, bool) {
	m := isoRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return format(atoi(m[1]), atoi(m[2]), atoi(m[3]))
}

func matchISODateTime(s string) (string, bool) {
	m := isoTimeRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return format(atoi(m[1]), atoi(m[2]), atoi(m[3]))
}

func matchCompactYMD(s string) (string, bool) {
	if len(s) != 8 || !digitsRe.MatchString(s) {
		return "", false
	}
	return format(atoi(s[:4]), atoi(s[4:6]), atoi(s[6:]))
}

func matchCompactMDY(s string) (string, bool) {
	if !digitsRe.MatchString(s) {
		return "", false
	}
	return format(expandYear(s[4:]), atoi(s[:2]), atoi(s[2:4]))
}

func matchYMD(s string) (string, bool) {
	m := ymdRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return format(atoi(m[1]), atoi(m[2]), atoi(m[3]))
}

func matchMDY(s string) (string, bool) {
	m := mdyRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return format(expandYear(m[3]), atoi(m[1]), atoi(m[2]))
}

func matchMonthFirst(s string) (string, bool) {
	m := monthFirstRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	month, ok := monthNames[strings.ToLower(m[1])]
	if !ok {
		return "", false
	}
	return format(expandYear(m[3]), month, atoi(m[2]))
}

func matchDayFirst(s string) (string, bool) {
	m := dayFirstRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	month, ok := monthNames[strings.ToLower(m[2])]
	if !ok {
		return "", false
	}
	return format(expandYear(m[3]), month, atoi(m[1]))
}

func matchFallback(s string) (string, bool) {
	for _, layout := range fallbackLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return format(t.Year(), int(t.Month()), t.Day())
	}
	return "", false
}
