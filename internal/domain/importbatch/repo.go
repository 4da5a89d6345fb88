package importbatch

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a batch does not exist.
var ErrNotFound = errors.New("import batch not found")

type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	List(ctx context.Context, limit, offset int) ([]*Batch, int, error)
}
