package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	"github.com/brightbooks-hq/brightbooks/internal/platform/db"
)

// Repository encapsulates DB operations for accounting periods.
type Repository interface {
	InsertFinancialYear(ctx context.Context, batch []Period) ([]Period, error)
	CountOverlapping(ctx context.Context, start, end time.Time) (int, error)
	FindByDate(ctx context.Context, d time.Time) (Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	ListByYear(ctx context.Context, financialYear string) ([]Period, error)
	Close(ctx context.Context, id int64, actorID int64, at time.Time) (Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, financial_year, start_date, end_date, period_number, is_year_end, is_closed, closed_by, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.FinancialYear, &p.StartDate, &p.EndDate, &p.PeriodNumber, &p.IsYearEnd, &p.IsClosed, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

// InsertFinancialYear writes the whole batch in one transaction, re-checking
// overlap against committed periods inside it.
func (r *repository) InsertFinancialYear(ctx context.Context, batch []Period) ([]Period, error) {
	inserted := make([]Period, 0, len(batch))
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var overlapping int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE start_date <= $2 AND end_date >= $1`,
			batch[0].StartDate, batch[len(batch)-1].EndDate).Scan(&overlapping); err != nil {
			return err
		}
		if overlapping > 0 {
			return shared.ErrPeriodOverlap
		}
		for _, p := range batch {
			row := tx.QueryRow(ctx, `INSERT INTO accounting_periods (financial_year, start_date, end_date, period_number, is_year_end, is_closed)
VALUES ($1,$2,$3,$4,$5,FALSE) RETURNING `+periodColumns,
				p.FinancialYear, p.StartDate, p.EndDate, p.PeriodNumber, p.IsYearEnd)
			saved, err := scanPeriod(row)
			if err != nil {
				return err
			}
			inserted = append(inserted, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *repository) CountOverlapping(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods WHERE start_date <= $2 AND end_date >= $1`, start, end).Scan(&count)
	return count, err
}

// FindByDate returns the period containing d, first-match by start_date when
// out-of-band data ever violates the non-overlap contract.
func (r *repository) FindByDate(ctx context.Context, d time.Time) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, d))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Period{}, shared.ErrNoPeriod
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id))
}

func (r *repository) ListByYear(ctx context.Context, financialYear string) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE financial_year=$1 ORDER BY period_number`, financialYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Close flips is_closed exactly once; the row is locked so a concurrent close
// or in-flight posting observes a consistent state.
func (r *repository) Close(ctx context.Context, id int64, actorID int64, at time.Time) (Period, error) {
	var closed Period
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanPeriod(tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if current.IsClosed {
			return shared.ErrAlreadyClosed
		}
		row := tx.QueryRow(ctx, `UPDATE accounting_periods SET is_closed=TRUE, closed_by=$2, closed_at=$3, updated_at=NOW()
WHERE id=$1 RETURNING `+periodColumns, id, actorID, at)
		closed, err = scanPeriod(row)
		return err
	})
	if err != nil {
		return Period{}, err
	}
	return closed, nil
}
