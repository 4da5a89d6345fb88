package abx

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ipc/ipc/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const courseCols = `id, record_id, identifier, name, unit, room, medication_name, dose, route, route_raw,
	indication, infection_source, start_date, end_date, treatment_days, include, batch_id, created_at, updated_at`

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.RecordID, &c.Identifier, &c.Name, &c.Unit, &c.Room,
		&c.MedicationName, &c.Dose, &c.Route, &c.RouteRaw, &c.Indication, &c.InfectionSource,
		&c.StartDate, &c.EndDate, &c.TreatmentDays, &c.Include, &c.BatchID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Upsert(ctx context.Context, c *Course) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO abx_course (id, record_id, identifier, name, unit, room, medication_name, dose,
			route, route_raw, indication, infection_source, start_date, end_date, treatment_days,
			include, batch_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (record_id) DO UPDATE SET
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			room = EXCLUDED.room,
			dose = EXCLUDED.dose,
			route_raw = EXCLUDED.route_raw,
			infection_source = EXCLUDED.infection_source,
			treatment_days = EXCLUDED.treatment_days,
			include = EXCLUDED.include,
			batch_id = EXCLUDED.batch_id,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		c.ID, c.RecordID, c.Identifier, c.Name, c.Unit, c.Room, c.MedicationName, c.Dose,
		c.Route, c.RouteRaw, c.Indication, c.InfectionSource, c.StartDate, c.EndDate, c.TreatmentDays,
		c.Include, c.BatchID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert abx course %s: %w", c.RecordID, err)
	}
	return nil
}

func (r *repoPG) GetByRecordID(ctx context.Context, recordID string) (*Course, error) {
	return scanCourse(r.conn(ctx).QueryRow(ctx, `SELECT `+courseCols+` FROM abx_course WHERE record_id = $1`, recordID))
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Course, int, error) {
	query := `SELECT ` + courseCols + ` FROM abx_course WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM abx_course WHERE 1=1`
	var args []interface{}
	idx := 1
	if f.Identifier != "" {
		query += fmt.Sprintf(` AND identifier = $%d`, idx)
		countQuery += fmt.Sprintf(` AND identifier = $%d`, idx)
		args = append(args, f.Identifier)
		idx++
	}
	if f.IncludeOnly {
		query += ` AND include`
		countQuery += ` AND include`
	}
	if f.ActiveOn != "" {
		clause := fmt.Sprintf(` AND start_date <> '' AND start_date <= $%d AND (end_date = '' OR end_date >= $%d)`, idx, idx)
		query += clause
		countQuery += clause
		args = append(args, f.ActiveOn)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query += fmt.Sprintf(` ORDER BY start_date DESC, identifier, medication_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
