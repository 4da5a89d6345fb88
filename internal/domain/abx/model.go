package abx

import (
	"time"

	"github.com/google/uuid"

	"github.com/ipc/ipc/internal/extract/orders"
	"github.com/ipc/ipc/internal/stewardship"
)

// Course is a stored antimicrobial order. RecordID is unique, so importing
// the same listing twice updates rather than duplicates.
type Course struct {
	ID uuid.UUID `json:"id"`
	orders.Row
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Filter narrows List. Zero values do not filter.
type Filter struct {
	Identifier  string
	IncludeOnly bool
	// ActiveOn is a YYYY-MM-DD day the course must span.
	ActiveOn string
}

// ImportSummary reports the yield of one order listing import.
type ImportSummary struct {
	BatchID  uuid.UUID    `json:"batchId"`
	Source   string       `json:"source"`
	Stats    orders.Stats `json:"stats"`
	Stored   int          `json:"stored"`
	Enriched int          `json:"enriched"`
}

// Review is a course with its stewardship flags as of a day.
type Review struct {
	Course *Course           `json:"course"`
	AsOf   string            `json:"asOf"`
	Flags  stewardship.Flags `json:"flags"`
}
