package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/periods"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
)

// Repository encapsulates DB operations for journal entries. Entry writes run
// through WithTx so header, lines, numbering, and period checks share one
// transaction.
type Repository interface {
	List(ctx context.Context, limit int) ([]JournalEntry, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// Period operations needed within journal transactions; the row lock
	// serializes posting against a concurrent close.
	FindPeriodByDateForUpdate(ctx context.Context, d time.Time) (periods.Period, error)
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)

	// NextEntryNumber bumps the per-financial-year counter row atomically.
	NextEntryNumber(ctx context.Context, financialYear string) (int64, error)

	GetAccountForPosting(ctx context.Context, accountID int64) (PostingAccount, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
	GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	MarkPosted(ctx context.Context, entryID, actorID int64, at time.Time) error
	MarkReversed(ctx context.Context, originalID, reversalID int64) error
}

// PostingAccount carries the account fields line validation needs.
type PostingAccount struct {
	ID                 int64
	Code               string
	IsActive           bool
	AllowDirectPosting bool
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, entry_number, entry_date, period_id, reference_type, reference_id, reference_number, status, total_debit, total_credit, is_reversal, reversal_of_id, reversed_by_id, narration, created_by, created_at, posted_by, posted_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.EntryDate, &e.PeriodID, &e.ReferenceType, &e.ReferenceID, &e.ReferenceNumber, &e.Status, &e.TotalDebit, &e.TotalCredit, &e.IsReversal, &e.ReversalOfID, &e.ReversedByID, &e.Narration, &e.CreatedBy, &e.CreatedAt, &e.PostedBy, &e.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

const lineColumns = `id, entry_id, line_number, account_id, debit, credit, currency, exchange_rate, base_debit, base_credit, narration, cost_center, created_at`

func scanLines(rows pgx.Rows) ([]JournalLine, error) {
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNumber, &l.AccountID, &l.Debit, &l.Credit, &l.Currency, &l.ExchangeRate, &l.BaseDebit, &l.BaseCredit, &l.Narration, &l.CostCenter, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = scanLines(rows)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

const periodColumns = `id, financial_year, start_date, end_date, period_number, is_year_end, is_closed, closed_by, closed_at, created_at, updated_at`

func (r *txRepository) scanPeriod(row pgx.Row) (periods.Period, error) {
	var p periods.Period
	err := row.Scan(&p.ID, &p.FinancialYear, &p.StartDate, &p.EndDate, &p.PeriodNumber, &p.IsYearEnd, &p.IsClosed, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrNoPeriod
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) FindPeriodByDateForUpdate(ctx context.Context, d time.Time) (periods.Period, error) {
	return r.scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1 FOR UPDATE`, d))
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	return r.scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1 FOR UPDATE`, periodID))
}

func (r *txRepository) NextEntryNumber(ctx context.Context, financialYear string) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_sequences (financial_year, last_number) VALUES ($1, 1)
ON CONFLICT (financial_year) DO UPDATE SET last_number = journal_entry_sequences.last_number + 1
RETURNING last_number`, financialYear).Scan(&seq)
	return seq, err
}

func (r *txRepository) GetAccountForPosting(ctx context.Context, accountID int64) (PostingAccount, error) {
	var a PostingAccount
	err := r.tx.QueryRow(ctx, `SELECT id, code, is_active, allow_direct_posting FROM accounts WHERE id=$1`, accountID).
		Scan(&a.ID, &a.Code, &a.IsActive, &a.AllowDirectPosting)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingAccount{}, shared.ErrNotFound
		}
		return PostingAccount{}, err
	}
	return a, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (entry_number, entry_date, period_id, reference_type, reference_id, reference_number, status, total_debit, total_credit, is_reversal, reversal_of_id, narration, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING `+entryColumns,
		entry.EntryNumber, entry.EntryDate, entry.PeriodID, entry.ReferenceType, entry.ReferenceID, entry.ReferenceNumber, entry.Status, entry.TotalDebit, entry.TotalCredit, entry.IsReversal, entry.ReversalOfID, entry.Narration, entry.CreatedBy)
	inserted, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return JournalEntry{}, shared.ErrDuplicateEntryNumber
		}
		return JournalEntry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_lines (entry_id, line_number, account_id, debit, credit, currency, exchange_rate, base_debit, base_credit, narration, cost_center)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			entryID, line.LineNumber, line.AccountID, line.Debit, line.Credit, line.Currency, line.ExchangeRate, line.BaseDebit, line.BaseCredit, line.Narration, line.CostCenter); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return JournalEntry{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = scanLines(rows)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) MarkPosted(ctx context.Context, entryID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, posted_by=$3, posted_at=$4 WHERE id=$1 AND status=$5`,
		entryID, EntryStatusPosted, actorID, at, EntryStatusDraft)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, originalID, reversalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET reversed_by_id=$2 WHERE id=$1 AND reversed_by_id IS NULL`,
		originalID, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAlreadyReversed
	}
	return nil
}
