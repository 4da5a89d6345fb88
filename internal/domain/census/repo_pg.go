package census

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

const residentCols = `id, identifier, match_keys, name, unit, room, dob_raw, dob, status, payor, batch_id, created_at, updated_at`

func scanResident(row pgx.Row) (*Resident, error) {
	var r Resident
	err := row.Scan(&r.ID, &r.Identifier, &r.MatchKeys, &r.Name, &r.Unit, &r.Room,
		&r.DOBRaw, &r.DOB, &r.Status, &r.Payor, &r.BatchID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Upsert inserts r or overwrites the resident with the same identifier. The
// stored id and timestamps are written back to r.
func (r *repoPG) Upsert(ctx context.Context, res *Resident) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO resident (id, identifier, match_keys, name, unit, room, dob_raw, dob, status, payor, batch_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (identifier) DO UPDATE SET
			match_keys = EXCLUDED.match_keys,
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			room = EXCLUDED.room,
			dob_raw = EXCLUDED.dob_raw,
			dob = EXCLUDED.dob,
			status = EXCLUDED.status,
			payor = EXCLUDED.payor,
			batch_id = EXCLUDED.batch_id,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		res.ID, res.Identifier, res.MatchKeys, res.Name, res.Unit, res.Room,
		res.DOBRaw, res.DOB, res.Status, res.Payor, res.BatchID,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert resident %s: %w", res.Identifier, err)
	}
	return nil
}

func (r *repoPG) GetByIdentifier(ctx context.Context, identifier string) (*Resident, error) {
	return scanResident(r.conn(ctx).QueryRow(ctx, `SELECT `+residentCols+` FROM resident WHERE identifier = $1`, identifier))
}

// FindByMatchKey returns the most recently updated resident whose keys
// include key.
func (r *repoPG) FindByMatchKey(ctx context.Context, key string) (*Resident, error) {
	return scanResident(r.conn(ctx).QueryRow(ctx, `
		SELECT `+residentCols+` FROM resident
		WHERE $1 = ANY(match_keys)
		ORDER BY (identifier = $1) DESC, updated_at DESC
		LIMIT 1`, key))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Resident, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM resident`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+residentCols+` FROM resident ORDER BY unit, room, name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Resident
	for rows.Next() {
		res, err := scanResident(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, rows.Err()
}
