package importbatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch kinds.
const (
	KindRoster = "roster"
	KindOrders = "orders"
)

// Batch records one import so its yield can be audited later.
type Batch struct {
	ID            uuid.UUID `json:"id"`
	Kind          string    `json:"kind"`
	Source        string    `json:"source"`
	LinesSeen     int       `json:"linesSeen"`
	RowsExtracted int       `json:"rowsExtracted"`
	RowsStored    int       `json:"rowsStored"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks the fields a batch must carry before it is stored.
func (b *Batch) Validate() error {
	if b.Kind != KindRoster && b.Kind != KindOrders {
		return fmt.Errorf("invalid batch kind: %q", b.Kind)
	}
	if b.RowsStored > b.RowsExtracted {
		return fmt.Errorf("rows stored (%d) exceeds rows extracted (%d)", b.RowsStored, b.RowsExtracted)
	}
	return nil
}
