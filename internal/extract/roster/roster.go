// Package roster reconstructs resident rows from a census dump pasted as
// undelimited text.
//
// Each usable line carries a parenthesized record number; everything before
// it is unit/room/name in one of several column layouts, everything after it
// is date of birth, status and payor.
package roster

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ipc/ipc/internal/extract/identifier"
	"github.com/ipc/ipc/internal/extract/textnorm"
)

// Row is one resident extracted from the census.
type Row struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
	Room       string `json:"room"`
	DOBRaw     string `json:"dobRaw"`
	Status     string `json:"status"`
	Payor      string `json:"payor"`
}

// Stats reports the yield of a parse so a person can sanity-check it.
type Stats struct {
	LinesSeen     int `json:"linesSeen"`
	RowsExtracted int `json:"rowsExtracted"`
	Skipped       int `json:"skipped"`
	Duplicates    int `json:"duplicates"`
}

// Result is the output of Parser.Parse.
type Result struct {
	Rows  []Row `json:"rows"`
	Stats Stats `json:"stats"`
}

var (
	emptyMarkerRe = regexp.MustCompile(`\bEMPTY\b`)
	dobRe         = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
)

// placeholderNames are census rows that are not residents.
var placeholderNames = map[string]bool{
	"BED HOLD":        true,
	"HOLD, BED":       true,
	"HOSPITAL HOLD":   true,
	"HOLD, HOSPITAL":  true,
	"ADMINISTRATIVE":  true,
	"ADMIN":           true,
	"RESERVED":        true,
	"BED, RESERVED":   true,
	"TEST, RESIDENT":  true,
	"TEST, PATIENT":   true,
	"CENSUS, TOTAL":   true,
	"TOTAL, CENSUS":   true,
	"UNASSIGNED":      true,
	"BED, UNASSIGNED": true,
}

// Parser parses census text. It holds no per-document state and is safe for
// concurrent use.
type Parser struct {
	log zerolog.Logger
}

// NewParser returns a Parser that logs skipped lines at debug level.
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse returns the deduplicated resident rows in text. Unusable lines are
// skipped; an empty result means nothing could be extracted.
func Parse(text string) []Row {
	return NewParser(zerolog.Nop()).Parse(text).Rows
}

// Parse parses a whole census document.
func (p *Parser) Parse(text string) Result {
	var res Result
	var rows []Row

	for i, line := range textnorm.Lines(text) {
		res.Stats.LinesSeen++
		row, reason := parseLine(line)
		if reason != "" {
			res.Stats.Skipped++
			p.log.Debug().Int("line", i+1).Str("reason", reason).Msg("roster line skipped")
			continue
		}
		rows = append(rows, row)
	}

	res.Rows, res.Stats.Duplicates = dedupe(rows)
	res.Stats.RowsExtracted = len(res.Rows)
	return res
}

// parseLine returns the row for line, or a non-empty skip reason.
func parseLine(line string) (Row, string) {
	if emptyMarkerRe.MatchString(line) {
		return Row{}, "empty bed marker"
	}

	m, ok := identifier.FindParenthesized(line)
	if !ok {
		return Row{}, "no identifier"
	}
	id := identifier.Canonicalize(m.Raw)
	if id == "" {
		return Row{}, "empty identifier"
	}

	l, _, ok := classify(strings.Fields(line[:m.Start]))
	if !ok {
		return Row{}, "no name"
	}

	row := Row{
		Identifier: id,
		Name:       normalizeName(l.name),
		Room:       l.room,
		Unit:       NormalizeUnit(l.unit, l.room),
	}

	tail := line[m.End:]
	if loc := dobRe.FindStringIndex(tail); loc != nil {
		row.DOBRaw = tail[loc[0]:loc[1]]
		tail = tail[:loc[0]] + " " + tail[loc[1]:]
	}

	if row.Room == "" && row.DOBRaw == "" && isPlaceholder(l.name, row.Name) {
		return Row{}, "placeholder row"
	}

	rest := strings.Fields(tail)
	if len(rest) > 2 {
		row.Status = strings.Join(rest[:2], " ")
		row.Payor = strings.Join(rest[2:], " ")
	} else {
		row.Status = strings.Join(rest, " ")
	}

	return row, ""
}

func isPlaceholder(names ...string) bool {
	for _, n := range names {
		if placeholderNames[strings.ToUpper(strings.Join(strings.Fields(n), " "))] {
			return true
		}
	}
	return false
}

// dedupe keeps the last row per identifier, ordered by last occurrence.
func dedupe(rows []Row) ([]Row, int) {
	seen := make(map[string]bool, len(rows))
	kept := make([]Row, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if seen[rows[i].Identifier] {
			continue
		}
		seen[rows[i].Identifier] = true
		kept = append(kept, rows[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept, len(rows) - len(kept)
}
