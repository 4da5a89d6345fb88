// Package orders extracts antimicrobial order rows from a pharmacy order
// listing pasted as text.
//
// Listings interleave resident headers, report furniture and one line per
// order. Parsing is a left fold over the lines: a header (or an order line
// that starts with a resident) sets the current resident, and every order
// line that follows is attributed to it.
package orders

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ipc/ipc/internal/extract/identifier"
	"github.com/ipc/ipc/internal/extract/roster"
	"github.com/ipc/ipc/internal/extract/textnorm"
)

// Row is one antimicrobial order.
type Row struct {
	RecordID        string `json:"recordId"`
	Identifier      string `json:"identifier"`
	Name            string `json:"name"`
	Unit            string `json:"unit"`
	Room            string `json:"room"`
	MedicationName  string `json:"medicationName"`
	Dose            string `json:"dose"`
	Route           string `json:"route"`
	RouteRaw        string `json:"routeRaw"`
	Indication      string `json:"indication"`
	InfectionSource string `json:"infectionSource"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	TreatmentDays   int    `json:"treatmentDays"`
	Include         bool   `json:"include"`
}

// Stats reports how the lines of a listing were classified.
type Stats struct {
	LinesSeen     int `json:"linesSeen"`
	RowsExtracted int `json:"rowsExtracted"`
	Headers       int `json:"headers"`
	Boilerplate   int `json:"boilerplate"`
	Skipped       int `json:"skipped"`
	Unattributed  int `json:"unattributed"`
}

// Result is the output of Parser.Parse.
type Result struct {
	Rows  []Row `json:"rows"`
	Stats Stats `json:"stats"`
}

// Line outcomes other than an extracted row.
const (
	reasonBoilerplate  = "boilerplate"
	reasonHeader       = "resident header"
	reasonNotOrder     = "not an order line"
	reasonNoMedication = "no medication name"
)

var (
	inlineRe     = regexp.MustCompile(`^([A-Za-z][A-Za-z'.\- ]*,\s*[A-Za-z][A-Za-z'.\- ]*?)\s*\(([^()]*\d[^()]*)\)\s*(\S.*)$`)
	headerLabel  = regexp.MustCompile(`(?i)^(?:resident(?:\s+name)?|patient(?:\s+name)?|name)\s*[:\-]\s*`)
	headerUnitRe = regexp.MustCompile(`(?i)\bunit\s*[:#]?\s*(\d)\b`)
	headerRoomRe = regexp.MustCompile(`(?i)\b(?:room|rm)\s*[:#]?\s*(\d{1,4}(?:-?[A-Za-z])?)\b`)
	headerDOBRe  = regexp.MustCompile(`(?i)\b(?:dob|d\.o\.b\.?|birth\s*date|date\s+of\s+birth)\s*[:\-]?\s*\S+`)
)

// resident is the context that order lines are attributed to.
type resident struct {
	identifier string
	name       string
	unit       string
	room       string
}

// state is the fold accumulator. Before the first header there is no
// resident; boilerplate never changes it.
type state struct {
	current resident
	active  bool
}

// Parser parses order listings. It holds no per-document state and is safe
// for concurrent use.
type Parser struct {
	log zerolog.Logger
}

// NewParser returns a Parser that logs non-row lines at debug level.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse returns the order rows in text, in document order.
func Parse(text string) []Row {
	return NewParser(zerolog.Nop()).Parse(text).Rows
}

// Parse parses a whole order listing.
func (p *Parser) Parse(text string) Result {
	res := Result{Rows: []Row{}}
	var st state

	for i, line := range textnorm.Lines(text) {
		res.Stats.LinesSeen++

		var row Row
		var reason string
		st, row, reason = advance(st, line)

		switch reason {
		case "":
			if row.Identifier == "" {
				res.Stats.Unattributed++
			}
			res.Rows = append(res.Rows, row)
			continue
		case reasonHeader:
			res.Stats.Headers++
		case reasonBoilerplate:
			res.Stats.Boilerplate++
		default:
			res.Stats.Skipped++
		}
		p.log.Debug().Int("line", i+1).Str("reason", reason).Msg("order line not extracted")
	}

	res.Stats.RowsExtracted = len(res.Rows)
	return res
}

// advance folds one line into the state. It returns the next state and
// either a row or the reason no row was produced.
func advance(st state, line string) (state, Row, string) {
	if isBoilerplate(line) {
		return st, Row{}, reasonBoilerplate
	}

	if r, ok := matchHeader(line); ok {
		return state{current: r, active: true}, Row{}, reasonHeader
	}

	if r, rest, ok := matchInline(line); ok {
		if st.active && st.current.identifier == r.identifier {
			r.unit, r.room = st.current.unit, st.current.room
		}
		st = state{current: r, active: true}
		row, reason := buildRow(st.current, rest)
		return st, row, reason
	}

	if !looksLikeMedication(line) {
		return st, Row{}, reasonNotOrder
	}

	text := line
	if !st.active {
		st.current, text = recoverResident(line)
		st.active = true
	}
	row, reason := buildRow(st.current, text)
	return st, row, reason
}

func isBoilerplate(line string) bool {
	for _, re := range boilerplateRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// matchInline recognizes "Last, First (id)<medication text>" with the order
// fused onto the resident.
func matchInline(line string) (resident, string, bool) {
	m := inlineRe.FindStringSubmatch(line)
	if m == nil || !looksLikeMedication(m[3]) {
		return resident{}, "", false
	}
	id := identifier.Canonicalize(m[2])
	if id == "" {
		return resident{}, "", false
	}
	return resident{identifier: id, name: collapse(m[1])}, m[3], true
}

// matchHeader recognizes a resident header: an identifier and a comma with
// no dosage form, drug or date. A labelled date of birth is allowed.
func matchHeader(line string) (resident, bool) {
	line = headerDOBRe.ReplaceAllString(line, " ")
	m, ok := identifier.FindParenthesized(line)
	if !ok || !strings.Contains(line, ",") || looksLikeMedication(line) {
		return resident{}, false
	}
	r := resident{identifier: identifier.Canonicalize(m.Raw)}

	if um := headerUnitRe.FindStringSubmatch(line); um != nil {
		r.unit = um[1]
	}
	if rm := headerRoomRe.FindStringSubmatch(line); rm != nil {
		r.room = rm[1]
	}
	if r.unit != "" || r.room != "" {
		r.unit = roster.NormalizeUnit(r.unit, r.room)
	}

	name := headerUnitRe.ReplaceAllString(line[:m.Start], " ")
	name = headerRoomRe.ReplaceAllString(name, " ")
	name = headerLabel.ReplaceAllString(strings.TrimSpace(name), "")
	r.name = strings.TrimRight(collapse(name), ",:- ")
	return r, true
}

// recoverResident builds a context for an order line seen before any
// header. The identifier is taken from the line when it carries one;
// otherwise the context is an empty placeholder.
func recoverResident(line string) (resident, string) {
	m, ok := identifier.FindParenthesized(line)
	if !ok {
		return resident{}, line
	}
	r := resident{identifier: identifier.Canonicalize(m.Raw)}
	before := line[:m.Start]
	if strings.Contains(before, ",") {
		r.name = collapse(before)
		return r, line[m.End:]
	}
	return r, before + " " + line[m.End:]
}

// buildRow extracts the order fields from text and attributes them to r.
func buildRow(r resident, text string) (Row, string) {
	name := medicationName(text)
	if name == "" {
		return Row{}, reasonNoMedication
	}

	row := Row{
		Identifier:     r.identifier,
		Name:           r.name,
		Unit:           r.unit,
		Room:           r.room,
		MedicationName: name,
		Dose:           dose(text),
		Indication:     indication(text),
	}
	row.Route, row.RouteRaw = route(text, name)
	row.StartDate, row.EndDate = orderDates(text)
	row.TreatmentDays = treatmentDays(text, row.StartDate, row.EndDate)
	row.InfectionSource = infectionSource(row.Indication, name)
	row.Include = row.Route != RouteTopical
	row.RecordID = recordID(row.Identifier, row.MedicationName, row.StartDate, row.EndDate, row.Route, row.Indication)
	return row, ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
