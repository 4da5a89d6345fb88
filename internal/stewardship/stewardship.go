// Package stewardship flags antimicrobial courses for review. The flags are
// advisory: every threshold and term list is configuration, and the final
// call belongs to the infection preventionist.
package stewardship

import (
	"strings"
	"time"
	"unicode"

	"github.com/ipc/ipc/internal/extract/dates"
	"github.com/ipc/ipc/internal/extract/orders"
)

// Heuristics configures Review.
type Heuristics struct {
	ReassessAfterDays    int
	ProphylaxisTerms     []string
	BacterialSourceTerms []string
}

// DefaultHeuristics returns the built-in thresholds and term lists.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ReassessAfterDays: 14,
		ProphylaxisTerms:  []string{"prophylaxis", "prevention", "ppx", "suppressive"},
		BacterialSourceTerms: []string{
			"uti", "urinary tract infection", "pyelonephritis", "cystitis", "pneumonia",
			"cellulitis", "wound infection", "abscess", "osteomyelitis", "bacteremia",
			"sepsis", "c diff", "cdiff", "diverticulitis", "cholecystitis", "endocarditis",
			"septic arthritis", "positive culture",
		},
	}
}

// Flags is the review of one course as of a given day.
type Flags struct {
	DaysOnTherapy    int  `json:"daysOnTherapy"`
	Prophylaxis      bool `json:"prophylaxis"`
	DocumentedSource bool `json:"documentedSource"`
	ReassessmentDue  bool `json:"reassessmentDue"`
	Ongoing          bool `json:"ongoing"`
}

// Review evaluates row as of asOf. Days on therapy run from the start date
// to the earlier of the end date and asOf, inclusive; without a start date
// the order's own treatment days are used.
func (h Heuristics) Review(row orders.Row, asOf time.Time) Flags {
	day := asOf.Format("2006-01-02")

	f := Flags{
		Prophylaxis:      containsTerm(row.Indication, h.ProphylaxisTerms),
		DocumentedSource: row.InfectionSource != orders.SourceOther || containsTerm(row.Indication, h.BacterialSourceTerms),
	}

	started := row.StartDate == "" || row.StartDate <= day
	notEnded := row.EndDate == "" || row.EndDate >= day
	f.Ongoing = started && notEnded

	switch {
	case row.StartDate == "":
		f.DaysOnTherapy = row.TreatmentDays
	case row.EndDate != "" && row.EndDate < day:
		f.DaysOnTherapy = dates.DaysInclusive(row.StartDate, row.EndDate)
	default:
		f.DaysOnTherapy = dates.DaysInclusive(row.StartDate, day)
	}

	f.ReassessmentDue = f.Ongoing && h.ReassessAfterDays > 0 && f.DaysOnTherapy >= h.ReassessAfterDays
	return f
}

// containsTerm matches whole words, ignoring case and punctuation, so
// "C. diff" matches the term "c diff".
func containsTerm(text string, terms []string) bool {
	hay := " " + words(text) + " "
	for _, t := range terms {
		if w := words(t); w != "" && strings.Contains(hay, " "+w+" ") {
			return true
		}
	}
	return false
}

func words(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
