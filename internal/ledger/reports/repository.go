package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
)

// AccountBalanceRow is the raw per-account aggregate used by the trial
// balance: posted sums plus the opening-balance fields needed to fold the
// opening in against the report date.
type AccountBalanceRow struct {
	AccountID          int64
	Code               string
	Name               string
	Type               accounts.AccountType
	OpeningBalance     decimal.Decimal
	OpeningBalanceDate *time.Time
	OpeningSide        accounts.BalanceSide
	SumDebit           decimal.Decimal
	SumCredit          decimal.Decimal
}

// Repository reads posted lines for report projection. All reads operate over
// posted, immutable rows, so no locking is needed.
type Repository interface {
	SumBefore(ctx context.Context, accountID int64, before time.Time) (debit, credit decimal.Decimal, err error)
	LinesInRange(ctx context.Context, accountID int64, from, to time.Time) ([]LedgerLine, error)
	ActiveAccountBalances(ctx context.Context, asOf time.Time) ([]AccountBalanceRow, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SumBefore(ctx context.Context, accountID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.base_debit), 0), COALESCE(SUM(l.base_credit), 0)
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.status = 'POSTED' AND e.entry_date < $2`, accountID, before).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return debit, credit, nil
}

func (r *repository) LinesInRange(ctx context.Context, accountID int64, from, to time.Time) ([]LedgerLine, error) {
	rows, err := r.db.Query(ctx, `SELECT l.entry_id, e.entry_number, e.entry_date, l.base_debit, l.base_credit, l.narration, l.cost_center
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.status = 'POSTED' AND e.entry_date BETWEEN $2 AND $3
ORDER BY e.entry_date, e.entry_number, l.line_number`, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []LedgerLine
	for rows.Next() {
		var l LedgerLine
		if err := rows.Scan(&l.EntryID, &l.EntryNumber, &l.EntryDate, &l.Debit, &l.Credit, &l.Narration, &l.CostCenter); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ActiveAccountBalances outer-joins accounts to their posted activity so that
// zero-activity accounts still appear in the trial balance.
func (r *repository) ActiveAccountBalances(ctx context.Context, asOf time.Time) ([]AccountBalanceRow, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.type, a.opening_balance, a.opening_balance_date, a.opening_side,
	COALESCE(SUM(l.base_debit), 0), COALESCE(SUM(l.base_credit), 0)
FROM accounts a
LEFT JOIN (journal_entry_lines l
	JOIN journal_entries e ON e.id = l.entry_id AND e.status = 'POSTED' AND e.entry_date <= $1
) ON l.account_id = a.id
WHERE a.is_active
GROUP BY a.id, a.code, a.name, a.type, a.opening_balance, a.opening_balance_date, a.opening_side
ORDER BY a.code`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []AccountBalanceRow
	for rows.Next() {
		var b AccountBalanceRow
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.OpeningBalance, &b.OpeningBalanceDate, &b.OpeningSide, &b.SumDebit, &b.SumCredit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
