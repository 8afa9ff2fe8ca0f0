package mapping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/masterdata/masterdata/internal/platform/apperr"
	"github.com/masterdata/masterdata/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const mappingColumns = `id, client_id, practice_id, source_appointment_type,
	standardized_category, start_date, end_date, notes, created_at, updated_at`

// PgRepo implements Repo backed by Postgres.
type PgRepo struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPgRepo(pool *pgxpool.Pool, schema string) *PgRepo {
	return &PgRepo{pool: pool, schema: schema}
}

func (r *PgRepo) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PgRepo) table() string { return r.schema + ".appointment_type_mappings" }
func (r *PgRepo) view() string  { return r.schema + ".active_appointment_type_mappings" }

func scanMapping(row pgx.Row) (*Mapping, error) {
	var m Mapping
	err := row.Scan(&m.ID, &m.ClientID, &m.PracticeID, &m.SourceCode,
		&m.StandardizedCategory, &m.ValidFrom, &m.ValidUntil, &m.Notes,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func collectMappings(rows pgx.Rows) ([]*Mapping, error) {
	defer rows.Close()
	mappings := make([]*Mapping, 0)
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.ID, &m.ClientID, &m.PracticeID, &m.SourceCode,
			&m.StandardizedCategory, &m.ValidFrom, &m.ValidUntil, &m.Notes,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

func (r *PgRepo) Create(ctx context.Context, m *Mapping) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, client_id, practice_id, source_appointment_type,
			standardized_category, start_date, end_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`, r.table())
	return r.conn(ctx).QueryRow(ctx, query,
		m.ID, m.ClientID, m.PracticeID, m.SourceCode,
		m.StandardizedCategory, m.ValidFrom, m.ValidUntil, m.Notes).
		Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *PgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Mapping, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, mappingColumns, r.table())
	return scanMapping(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *PgRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Mapping, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE client_id = $1`, r.table())
	if err := r.conn(ctx).QueryRow(ctx, countQuery, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE client_id = $1
		ORDER BY source_appointment_type, start_date DESC
		LIMIT $2 OFFSET $3`, mappingColumns, r.table())
	rows, err := r.conn(ctx).Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	mappings, err := collectMappings(rows)
	if err != nil {
		return nil, 0, err
	}
	return mappings, total, nil
}

func (r *PgRepo) LockScope(ctx context.Context, clientID uuid.UUID, practiceID *uuid.UUID, sourceCode string) ([]*Mapping, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE client_id = $1
		  AND practice_id IS NOT DISTINCT FROM $2
		  AND source_appointment_type = $3
		FOR UPDATE`, mappingColumns, r.table())
	rows, err := r.conn(ctx).Query(ctx, query, clientID, practiceID, sourceCode)
	if err != nil {
		return nil, err
	}
	return collectMappings(rows)
}

func (r *PgRepo) Candidates(ctx context.Context, clientID uuid.UUID, practiceID *uuid.UUID, sourceCode string) ([]*Mapping, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE client_id = $1
		  AND source_appointment_type = $2
		  AND (practice_id IS NULL OR practice_id = $3)`, mappingColumns, r.table())
	rows, err := r.conn(ctx).Query(ctx, query, clientID, sourceCode, practiceID)
	if err != nil {
		return nil, err
	}
	return collectMappings(rows)
}

func (r *PgRepo) SetEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) (*Mapping, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET end_date = $2
		WHERE id = $1
		RETURNING %s`, r.table(), mappingColumns)
	return scanMapping(r.conn(ctx).QueryRow(ctx, query, id, endDate))
}

func (r *PgRepo) ListActive(ctx context.Context, clientID, practiceID *uuid.UUID, limit, offset int) ([]*ActiveMapping, int, error) {
	where := `WHERE ($1::uuid IS NULL OR client_id = $1)
	  AND ($2::uuid IS NULL OR practice_id IS NOT DISTINCT FROM $2)`

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.view(), where)
	if err := r.conn(ctx).QueryRow(ctx, countQuery, clientID, practiceID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, client_name, practice_name FROM %s
		%s
		ORDER BY client_name, source_appointment_type
		LIMIT $3 OFFSET $4`, mappingColumns, r.view(), where)
	rows, err := r.conn(ctx).Query(ctx, query, clientID, practiceID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	active := make([]*ActiveMapping, 0)
	for rows.Next() {
		var a ActiveMapping
		if err := rows.Scan(&a.ID, &a.ClientID, &a.PracticeID, &a.SourceCode,
			&a.StandardizedCategory, &a.ValidFrom, &a.ValidUntil, &a.Notes,
			&a.CreatedAt, &a.UpdatedAt, &a.ClientName, &a.PracticeName); err != nil {
			return nil, 0, err
		}
		active = append(active, &a)
	}
	return active, total, rows.Err()
}
