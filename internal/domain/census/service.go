package census

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ipc/ipc/internal/domain/importbatch"
	"github.com/ipc/ipc/internal/extract/identifier"
	"github.com/ipc/ipc/internal/extract/roster"
	"github.com/ipc/ipc/internal/platform/db"
)

// BatchRecorder stores the yield of an import.
type BatchRecorder interface {
	Record(ctx context.Context, b *importbatch.Batch) error
}

type Service struct {
	repo    Repository
	batches BatchRecorder
	tx      db.TxBeginner
	parser  *roster.Parser
	log     zerolog.Logger
}

// NewService wires the census service. tx may be nil, in which case imports
// are not wrapped in a transaction.
func NewService(repo Repository, batches BatchRecorder, tx db.TxBeginner, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		batches: batches,
		tx:      tx,
		parser:  roster.NewParser(log),
		log:     log,
	}
}

// ParseRoster extracts residents from text without storing anything.
func (s *Service) ParseRoster(text string) roster.Result {
	return s.parser.Parse(text)
}

// ImportRoster parses text and upserts every resident under one import
// batch. Either all rows and the batch are stored or none are.
func (s *Service) ImportRoster(ctx context.Context, source, text string) (*ImportSummary, error) {
	res := s.parser.Parse(text)
	batch := &importbatch.Batch{
		Kind:          importbatch.KindRoster,
		Source:        source,
		LinesSeen:     res.Stats.LinesSeen,
		RowsExtracted: res.Stats.RowsExtracted,
		RowsStored:    len(res.Rows),
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.batches.Record(ctx, batch); err != nil {
			return err
		}
		for _, row := range res.Rows {
			r := FromRow(row)
			r.BatchID = &batch.ID
			if err := s.repo.Upsert(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("census: import %s: %w", source, err)
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("source", source).
		Int("lines", res.Stats.LinesSeen).
		Int("rows", res.Stats.RowsExtracted).
		Int("skipped", res.Stats.Skipped).
		Int("duplicates", res.Stats.Duplicates).
		Msg("roster imported")

	return &ImportSummary{BatchID: batch.ID, Source: source, Stats: res.Stats, Stored: len(res.Rows)}, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.tx, fn)
}

// Get looks a resident up by canonical identifier.
func (s *Service) Get(ctx context.Context, id string) (*Resident, error) {
	return s.repo.GetByIdentifier(ctx, identifier.Canonicalize(id))
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Resident, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ResolveResident finds the resident for an identifier as written on another
// document, trying each of its match keys in turn.
func (s *Service) ResolveResident(ctx context.Context, rawID string) (*Resident, error) {
	for _, key := range identifier.MatchKeys(rawID) {
		r, err := s.repo.FindByMatchKey(ctx, key)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("census: resolve %s: %w", rawID, err)
		}
	}
	return nil, ErrNotFound
}
