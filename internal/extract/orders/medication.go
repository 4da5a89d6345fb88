package orders

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ipc/ipc/internal/extract/dates"
)

const (
	maxNameTokens     = 8
	maxFallbackTokens = 4
	maxRouteCodeLen   = 8
	maxRecordIDLen    = 220
)

var (
	compoundDoseRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s*-\s*\d*\.?\d+)\s*(mcg|mg|gm|g|ml|units?(?:/ml)?)\b`)
	simpleDoseRe   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mcg|mg|gm|g|ml|units?(?:/ml)?)\b`)
	bareNumberRe   = regexp.MustCompile(`^\(?\d+(?:\.\d+)?(?:-\d*\.?\d+)?$`)
	routeTextRe    = regexp.MustCompile(`(?i)\b(?:via|per|route:?)\s+([A-Za-z][A-Za-z\-]*)`)
	forRe          = regexp.MustCompile(`(?i)\bfor\s+`)
	indicationRe   = regexp.MustCompile(`(?i)\bindication\s*[:\-]\s*(.+)`)
	clauseEndRe    = regexp.MustCompile(`(?i)[;|(]|\s+(?:for|once|twice|two\s+times|three\s+times|four\s+times|every|daily|bid|tid|qid|q\d+h?|at\s+bedtime|until|through|thru|x\s*\d|start(?:ing)?|end(?:ing)?|then|give|apply)\b`)
	trailingDayRe  = regexp.MustCompile(`(?i)(?:^|[\s,:.]+)(?:(?:x\s*)?\d+\s*(?:days?|d)?|x|and|on|from|to)$`)
	durationRe     = regexp.MustCompile(`(?i)\b(?:for|x)\s*(\d{1,3})\s*days?\b`)
	unsafeIDRe     = regexp.MustCompile(`[^A-Z0-9-]+`)
)

// notRoutes are words that follow "per" without naming a route.
var notRoutes = map[string]bool{
	"day": true, "days": true, "hour": true, "hours": true, "week": true, "dose": true,
	"protocol": true, "pharmacy": true, "md": true, "physician": true, "order": true, "policy": true,
}

// connectors join parts of a description but never end one.
var connectors = map[string]bool{"in": true, "and": true, "&": true, "w/": true}

var formSet = toSet(formKeywords)

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// looksLikeMedication reports whether s carries any signal of an order row.
func looksLikeMedication(s string) bool {
	return dates.ContainsDate(s) || formRe.MatchString(s) || antibioticRe.MatchString(s)
}

// medicationName prefers a known antimicrobial extended through its
// description, then falls back to a generic dosage form with the words in
// front of it. It returns "" when neither applies.
func medicationName(text string) string {
	if loc := antibioticRe.FindStringIndex(text); loc != nil {
		return extendName(strings.Fields(text[loc[0]:]), len(strings.Fields(text[loc[0]:loc[1]])))
	}
	if loc := formRe.FindStringIndex(text); loc != nil {
		return formName(strings.Fields(text[:loc[0]]), text[loc[0]:loc[1]])
	}
	return ""
}

func extendName(toks []string, n int) string {
	for n < len(toks) && n < maxNameTokens && nameContinues(toks, n) {
		n++
	}
	for n > 1 && connectors[strings.ToLower(toks[n-1])] {
		n--
	}
	return cleanName(strings.Join(toks[:n], " "))
}

// nameContinues reports whether toks[i] is still part of the medication
// description: strength, unit, dosage form, salt or another drug.
func nameContinues(toks []string, i int) bool {
	tok := toks[i]
	lower := strings.ToLower(strings.Trim(tok, ",;:"))
	if lower == "" || lower == "for" || instructionVerbs[lower] || dates.ContainsDate(tok) {
		return false
	}
	if bareNumberRe.MatchString(lower) {
		return i+1 < len(toks) && isUnitOrForm(toks[i+1])
	}
	if strengthRe.MatchString(lower) || isUnitOrForm(lower) || nameDescriptors[lower] || isDrug(lower) {
		return true
	}
	parts := strings.FieldsFunc(lower, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if !nameDescriptors[p] && !isDrug(p) && !formSet[p] && !strengthRe.MatchString(p) {
			return false
		}
	}
	return true
}

func isUnitOrForm(tok string) bool {
	lower := strings.ToLower(strings.Trim(tok, ",;:"))
	return unitTokenRe.MatchString(lower) || formSet[lower]
}

func isDrug(tok string) bool {
	loc := antibioticRe.FindStringIndex(tok)
	return loc != nil && loc[0] == 0 && loc[1] == len(tok)
}

// formName takes the dosage form plus up to four words before it, dropping
// anything up to a date, identifier or punctuation break.
func formName(before []string, form string) string {
	if len(before) > maxFallbackTokens {
		before = before[len(before)-maxFallbackTokens:]
	}
	start := 0
	for i, tok := range before {
		if dates.ContainsDate(tok) || strings.ContainsAny(tok, "():;|") || bareNumberRe.MatchString(tok) {
			start = i + 1
		}
	}
	if start >= len(before) {
		return ""
	}
	return cleanName(strings.Join(append(before[start:], form), " "))
}

func cleanName(s string) string {
	return strings.TrimRight(strings.Join(strings.Fields(s), " "), ",;:-")
}

// dose renders the first strength found, preferring a range.
func dose(text string) string {
	for _, re := range []*regexp.Regexp{compoundDoseRe, simpleDoseRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			num := strings.Join(strings.Fields(m[1]), "")
			return num + " " + strings.ToUpper(m[2])
		}
	}
	return ""
}

// route maps the line onto a route code. The raw matched text is returned
// alongside so an unrecognized route is still visible to a reviewer.
func route(text, name string) (code, raw string) {
	for _, r := range routeRules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if r.reject != nil && r.reject(text, loc) {
				continue
			}
			return r.code, text[loc[0]:loc[1]]
		}
	}
	for _, m := range routeTextRe.FindAllStringSubmatch(text, -1) {
		if notRoutes[strings.ToLower(m[1])] {
			continue
		}
		code = strings.ToUpper(m[1])
		if len(code) > maxRouteCodeLen {
			code = code[:maxRouteCodeLen]
		}
		return code, m[1]
	}
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if topicalForms[w] {
			return RouteTopical, w
		}
	}
	return "", ""
}

// indication returns the first "for X" clause that is not a duration, cut at
// the first date and stripped of trailing day counts.
func indication(text string) string {
	for _, loc := range forRe.FindAllStringIndex(text, -1) {
		cand := text[loc[1]:]
		if cand == "" || (cand[0] >= '0' && cand[0] <= '9') {
			continue
		}
		if s := cleanIndication(cand); s != "" {
			return s
		}
	}
	if m := indicationRe.FindStringSubmatch(text); m != nil {
		return cleanIndication(m[1])
	}
	return ""
}

func cleanIndication(s string) string {
	if toks := dates.FindTokens(s); len(toks) > 0 {
		s = s[:toks[0].Start]
	}
	if loc := clauseEndRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.TrimSpace(s)
	for {
		trimmed := strings.TrimSpace(trailingDayRe.ReplaceAllString(s, ""))
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return strings.Join(strings.Fields(strings.TrimRight(s, ",;:.-")), " ")
}

// infectionSource classifies the indication by the first keyword set, in
// priority order, that matches. The drug name is consulted only when the
// indication says nothing.
func infectionSource(indication, name string) string {
	for _, text := range []string{indication, name} {
		for _, r := range sourceRules {
			if r.re.MatchString(text) {
				return r.source
			}
		}
	}
	return SourceOther
}

// treatmentDays prefers the start/end span and falls back to a stated
// duration such as "for 7 days" or "x 10 days".
func treatmentDays(text, start, end string) int {
	if n := dates.DaysInclusive(start, end); n > 0 {
		return n
	}
	if m := durationRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// orderDates returns the first two dates on the line that normalize.
func orderDates(text string) (start, end string) {
	var found []string
	for _, t := range dates.FindTokens(text) {
		if iso := dates.Normalize(t.Raw); iso != "" {
			found = append(found, iso)
		}
		if len(found) == 2 {
			break
		}
	}
	switch len(found) {
	case 0:
		return "", ""
	case 1:
		return found[0], ""
	default:
		return found[0], found[1]
	}
}

// recordID derives a stable, readable key from the fields that identify an
// order. Each part is upper-cased and reduced to [A-Z0-9-] runs.
func recordID(parts ...string) string {
	clean := make([]string, len(parts))
	for i, p := range parts {
		clean[i] = strings.Trim(unsafeIDRe.ReplaceAllString(strings.ToUpper(p), "_"), "_")
	}
	id := "abx_" + strings.Join(clean, "__")
	if len(id) > maxRecordIDLen {
		id = id[:maxRecordIDLen]
	}
	return id
}
