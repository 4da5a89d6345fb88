package importbatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and stores b, assigning its ID.
func (s *Service) Record(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return fmt.Errorf("importbatch: record: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Batch, int, error) {
	return s.repo.List(ctx, limit, offset)
}
