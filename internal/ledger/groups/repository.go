package groups

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
)

// Repository encapsulates DB operations for account groups.
type Repository interface {
	Insert(ctx context.Context, group AccountGroup) (AccountGroup, error)
	Get(ctx context.Context, id int64) (AccountGroup, error)
	List(ctx context.Context) ([]AccountGroup, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const groupColumns = `id, name, code, type, parent_id, sequence, is_system, created_at, updated_at`

func scanGroup(row pgx.Row) (AccountGroup, error) {
	var g AccountGroup
	err := row.Scan(&g.ID, &g.Name, &g.Code, &g.Type, &g.ParentID, &g.Sequence, &g.IsSystem, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountGroup{}, shared.ErrNotFound
		}
		return AccountGroup{}, err
	}
	return g, nil
}

func (r *repository) Insert(ctx context.Context, group AccountGroup) (AccountGroup, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO account_groups (name, code, type, parent_id, sequence, is_system)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING `+groupColumns,
		group.Name, group.Code, group.Type, group.ParentID, group.Sequence, group.IsSystem)
	inserted, err := scanGroup(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return AccountGroup{}, shared.ErrDuplicateCode
		}
		return AccountGroup{}, err
	}
	return inserted, nil
}

func (r *repository) Get(ctx context.Context, id int64) (AccountGroup, error) {
	return scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM account_groups WHERE id=$1`, id))
}

// List returns every group ordered by (sequence, name), the tree display order.
func (r *repository) List(ctx context.Context) ([]AccountGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT `+groupColumns+` FROM account_groups ORDER BY sequence, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []AccountGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
