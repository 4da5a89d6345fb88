package abx

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no course has the requested record id.
var ErrNotFound = errors.New("abx course not found")

type Repository interface {
	Upsert(ctx context.Context, c *Course) error
	GetByRecordID(ctx context.Context, recordID string) (*Course, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Course, int, error)
}
