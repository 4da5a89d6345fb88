package census

import (
	"time"

	"github.com/google/uuid"

	"github.com/ipc/ipc/internal/extract/dates"
	"github.com/ipc/ipc/internal/extract/identifier"
	"github.com/ipc/ipc/internal/extract/roster"
)

// Resident is a census row as stored. Identifier is the canonical record
// number; MatchKeys also holds its digits-only variant for lookups.
type Resident struct {
	ID         uuid.UUID  `json:"id"`
	Identifier string     `json:"identifier"`
	MatchKeys  []string   `json:"matchKeys"`
	Name       string     `json:"name"`
	Unit       string     `json:"unit"`
	Room       string     `json:"room"`
	DOBRaw     string     `json:"dobRaw"`
	DOB        *time.Time `json:"dob,omitempty"`
	Status     string     `json:"status"`
	Payor      string     `json:"payor"`
	BatchID    *uuid.UUID `json:"batchId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// FromRow converts a parsed roster row. DOB is left nil when the raw date
// does not normalize to a real calendar day.
func FromRow(r roster.Row) *Resident {
	res := &Resident{
		Identifier: r.Identifier,
		MatchKeys:  identifier.MatchKeys(r.Identifier),
		Name:       r.Name,
		Unit:       r.Unit,
		Room:       r.Room,
		DOBRaw:     r.DOBRaw,
		Status:     r.Status,
		Payor:      r.Payor,
	}
	if t, ok := dates.Parse(r.DOBRaw); ok {
		res.DOB = &t
	}
	return res
}

// ImportSummary reports the yield of one roster import.
type ImportSummary struct {
	BatchID uuid.UUID    `json:"batchId"`
	Source  string       `json:"source"`
	Stats   roster.Stats `json:"stats"`
	Stored  int          `json:"stored"`
}
