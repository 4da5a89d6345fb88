package abx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ipc/ipc/internal/domain/census"
	"github.com/ipc/ipc/internal/domain/importbatch"
	"github.com/ipc/ipc/internal/extract/orders"
	"github.com/ipc/ipc/internal/platform/db"
	"github.com/ipc/ipc/internal/stewardship"
)

// BatchRecorder stores the yield of an import.
type BatchRecorder interface {
	Record(ctx context.Context, b *importbatch.Batch) error
}

// ResidentResolver looks a resident up by an identifier as written on the
// order listing.
type ResidentResolver interface {
	ResolveResident(ctx context.Context, rawID string) (*census.Resident, error)
}

type Service struct {
	repo       Repository
	batches    BatchRecorder
	residents  ResidentResolver
	tx         db.TxBeginner
	heuristics stewardship.Heuristics
	parser     *orders.Parser
	log        zerolog.Logger
}

// NewService wires the abx service. residents and tx may be nil: without a
// resolver unit and room are stored as parsed, without tx imports are not
// transactional.
func NewService(repo Repository, batches BatchRecorder, residents ResidentResolver, tx db.TxBeginner, h stewardship.Heuristics, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		batches:    batches,
		residents:  residents,
		tx:         tx,
		heuristics: h,
		parser:     orders.NewParser(log),
		log:        log,
	}
}

// ParseOrders extracts order rows from text without storing anything.
func (s *Service) ParseOrders(text string) orders.Result {
	return s.parser.Parse(text)
}

// ImportOrders parses text, fills in unit and room from the census where the
// listing left them blank, and upserts every course under one import batch.
func (s *Service) ImportOrders(ctx context.Context, source, text string) (*ImportSummary, error) {
	res := s.parser.Parse(text)

	enriched, err := s.enrich(ctx, res.Rows)
	if err != nil {
		return nil, fmt.Errorf("abx: import %s: %w", source, err)
	}

	courses := dedupe(res.Rows)
	batch := &importbatch.Batch{
		Kind:          importbatch.KindOrders,
		Source:        source,
		LinesSeen:     res.Stats.LinesSeen,
		RowsExtracted: res.Stats.RowsExtracted,
		RowsStored:    len(courses),
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.batches.Record(ctx, batch); err != nil {
			return err
		}
		for _, c := range courses {
			c.BatchID = &batch.ID
			if err := s.repo.Upsert(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("abx: import %s: %w", source, err)
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("source", source).
		Int("lines", res.Stats.LinesSeen).
		Int("rows", res.Stats.RowsExtracted).
		Int("stored", len(courses)).
		Int("enriched", enriched).
		Int("unattributed", res.Stats.Unattributed).
		Msg("order listing imported")

	return &ImportSummary{
		BatchID:  batch.ID,
		Source:   source,
		Stats:    res.Stats,
		Stored:   len(courses),
		Enriched: enriched,
	}, nil
}

// enrich fills blank unit, room and name from the census. It returns how
// many rows were changed.
func (s *Service) enrich(ctx context.Context, rows []orders.Row) (int, error) {
	if s.residents == nil {
		return 0, nil
	}
	n := 0
	for i := range rows {
		row := &rows[i]
		if row.Identifier == "" || (row.Unit != "" && row.Room != "" && row.Name != "") {
			continue
		}
		r, err := s.residents.ResolveResident(ctx, row.Identifier)
		if errors.Is(err, census.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		changed := false
		if row.Unit == "" && r.Unit != "" {
			row.Unit, changed = r.Unit, true
		}
		if row.Room == "" && r.Room != "" {
			row.Room, changed = r.Room, true
		}
		if row.Name == "" && r.Name != "" {
			row.Name, changed = r.Name, true
		}
		if changed {
			n++
		}
	}
	return n, nil
}

// dedupe keeps the last row for each record id, in order of first
// appearance.
func dedupe(rows []orders.Row) []*Course {
	index := make(map[string]int, len(rows))
	var out []*Course
	for _, row := range rows {
		if i, ok := index[row.RecordID]; ok {
			out[i].Row = row
			continue
		}
		index[row.RecordID] = len(out)
		out = append(out, &Course{Row: row})
	}
	return out
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.tx, fn)
}

func (s *Service) Get(ctx context.Context, recordID string) (*Course, error) {
	return s.repo.GetByRecordID(ctx, recordID)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Course, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Review flags the course for stewardship follow-up as of asOf.
func (s *Service) Review(ctx context.Context, recordID string, asOf time.Time) (*Review, error) {
	c, err := s.repo.GetByRecordID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &Review{
		Course: c,
		AsOf:   asOf.Format("2006-01-02"),
		Flags:  s.heuristics.Review(c.Row, asOf),
	}, nil
}
