package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const clientColumns = `id, name, slug, status, created_at, updated_at`

// PgClientRepo implements ClientRepo backed by Postgres.
type PgClientRepo struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPgClientRepo(pool *pgxpool.Pool, schema string) *PgClientRepo {
	return &PgClientRepo{pool: pool, schema: schema}
}

func (r *PgClientRepo) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PgClientRepo) table() string { return r.schema + ".clients" }

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgClientRepo) Create(ctx context.Context, c *Client) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, slug, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`, r.table())
	return r.conn(ctx).QueryRow(ctx, query, c.ID, c.Name, c.Slug, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *PgClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, clientColumns, r.table())
	return scanClient(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *PgClientRepo) GetBySlug(ctx context.Context, slug string) (*Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE slug = $1`, clientColumns, r.table())
	return scanClient(r.conn(ctx).QueryRow(ctx, query, slug))
}

func (r *PgClientRepo) List(ctx context.Context, limit, offset int) ([]*Client, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table())
	if err := r.conn(ctx).QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY name
		LIMIT $1 OFFSET $2`, clientColumns, r.table())
	rows, err := r.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clients := make([]*Client, 0)
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		clients = append(clients, &c)
	}
	return clients, total, rows.Err()
}

func (r *PgClientRepo) Update(ctx context.Context, c *Client) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, slug = $3, status = $4
		WHERE id = $1
		RETURNING updated_at`, r.table())
	err := r.conn(ctx).QueryRow(ctx, query, c.ID, c.Name, c.Slug, c.Status).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *PgClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table())
	tag, err := r.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

const practiceColumns = `id, client_id, name, practice_type, owner_name, is_active, created_at, updated_at`

// PgPracticeRepo implements PracticeRepo backed by Postgres.
type PgPracticeRepo struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPgPracticeRepo(pool *pgxpool.Pool, schema string) *PgPracticeRepo {
	return &PgPracticeRepo{pool: pool, schema: schema}
}

func (r *PgPracticeRepo) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PgPracticeRepo) table() string { return r.schema + ".practices" }

func (r *PgPracticeRepo) Create(ctx context.Context, p *Practice) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, client_id, name, practice_type, owner_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`, r.table())
	return r.conn(ctx).QueryRow(ctx, query,
		p.ID, p.ClientID, p.Name, p.PracticeType, p.OwnerName, p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PgPracticeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Practice, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, practiceColumns, r.table())
	var p Practice
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ClientID, &p.Name, &p.PracticeType, &p.OwnerName,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgPracticeRepo) List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*Practice, int, error) {
	where := ""
	countArgs := []any{}
	args := []any{limit, offset}
	if clientID != nil {
		where = "WHERE p.client_id = $3"
		countArgs = append(countArgs, *clientID)
		args = append(args, *clientID)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s p %s`,
		r.table(), replaceArgPlaceholder(where, "$3", "$1"))
	if err := r.conn(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.client_id, p.name, p.practice_type, p.owner_name,
		       p.is_active, p.created_at, p.updated_at, c.name
		FROM %s p
		JOIN %s.clients c ON c.id = p.client_id
		%s
		ORDER BY c.name, p.name
		LIMIT $1 OFFSET $2`, r.table(), r.schema, where)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	practices := make([]*Practice, 0)
	for rows.Next() {
		var p Practice
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.PracticeType, &p.OwnerName,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.ClientName); err != nil {
			return nil, 0, err
		}
		practices = append(practices, &p)
	}
	return practices, total, rows.Err()
}

func (r *PgPracticeRepo) Update(ctx context.Context, p *Practice) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, practice_type = $3, owner_name = $4, is_active = $5
		WHERE id = $1
		RETURNING updated_at`, r.table())
	err := r.conn(ctx).QueryRow(ctx, query,
		p.ID, p.Name, p.PracticeType, p.OwnerName, p.IsActive).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *PgPracticeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table())
	tag, err := r.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

const providerColumns = `id, practice_id, name, provider_type, is_active, created_at, updated_at`

// PgProviderRepo implements ProviderRepo backed by Postgres.
type PgProviderRepo struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPgProviderRepo(pool *pgxpool.Pool, schema string) *PgProviderRepo {
	return &PgProviderRepo{pool: pool, schema: schema}
}

func (r *PgProviderRepo) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *PgProviderRepo) table() string { return r.schema + ".providers" }

func (r *PgProviderRepo) Create(ctx context.Context, p *Provider) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, practice_id, name, provider_type, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`, r.table())
	return r.conn(ctx).QueryRow(ctx, query,
		p.ID, p.PracticeID, p.Name, p.ProviderType, p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PgProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, providerColumns, r.table())
	var p Provider
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(
		&p.ID, &p.PracticeID, &p.Name, &p.ProviderType,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgProviderRepo) List(ctx context.Context, practiceID *uuid.UUID, limit, offset int) ([]*Provider, int, error) {
	where := ""
	countArgs := []any{}
	args := []any{limit, offset}
	if practiceID != nil {
		where = "WHERE pr.practice_id = $3"
		countArgs = append(countArgs, *practiceID)
		args = append(args, *practiceID)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s pr %s`,
		r.table(), replaceArgPlaceholder(where, "$3", "$1"))
	if err := r.conn(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT pr.id, pr.practice_id, pr.name, pr.provider_type,
		       pr.is_active, pr.created_at, pr.updated_at, p.name, c.name
		FROM %s pr
		JOIN %s.practices p ON p.id = pr.practice_id
		JOIN %s.clients c ON c.id = p.client_id
		%s
		ORDER BY c.name, p.name, pr.name
		LIMIT $1 OFFSET $2`, r.table(), r.schema, r.schema, where)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	providers := make([]*Provider, 0)
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.PracticeID, &p.Name, &p.ProviderType,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.PracticeName, &p.ClientName); err != nil {
			return nil, 0, err
		}
		providers = append(providers, &p)
	}
	return providers, total, rows.Err()
}

func (r *PgProviderRepo) Update(ctx context.Context, p *Provider) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $2, provider_type = $3, is_active = $4
		WHERE id = $1
		RETURNING updated_at`, r.table())
	err := r.conn(ctx).QueryRow(ctx, query,
		p.ID, p.Name, p.ProviderType, p.IsActive).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *PgProviderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table())
	tag, err := r.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Count queries reuse the list WHERE clause but bind only the filter arg.
func replaceArgPlaceholder(clause, from, to string) string {
	return strings.ReplaceAll(clause, from, to)
}
