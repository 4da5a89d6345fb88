package census

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no resident matches.
var ErrNotFound = errors.New("resident not found")

type Repository interface {
	Upsert(ctx context.Context, r *Resident) error
	GetByIdentifier(ctx context.Context, identifier string) (*Resident, error)
	FindByMatchKey(ctx context.Context, key string) (*Resident, error)
	List(ctx context.Context, limit, offset int) ([]*Resident, int, error)
}
