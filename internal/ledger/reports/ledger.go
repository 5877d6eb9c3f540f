package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerLine is one posted line for an account, in base currency.
type LedgerLine struct {
	EntryID     int64
	EntryNumber string
	EntryDate   time.Time
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Narration   string
	CostCenter  string
}

// LedgerRow is a transaction row with its running balance.
type LedgerRow struct {
	EntryID     int64
	EntryNumber string
	EntryDate   time.Time
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Balance     decimal.Decimal
	Side        string
	Narration   string
	CostCenter  string
}

// AccountLedger is the ordered transaction history of one account.
type AccountLedger struct {
	AccountID      int64
	AccountCode    string
	AccountName    string
	FromDate       time.Time
	ToDate         time.Time
	OpeningBalance decimal.Decimal
	OpeningSide    string
	Rows           []LedgerRow
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal
	ClosingSide    string
}

// balanceSide labels a signed balance; zero counts as debit.
func balanceSide(balance decimal.Decimal) string {
	if balance.IsNegative() {
		return "Cr"
	}
	return "Dr"
}

// BuildAccountLedger projects the running balance over the window. Rows are
// ordered by (entry date, entry number) — the tie-break that makes the
// running balance deterministic when several entries share a date.
func BuildAccountLedger(opening decimal.Decimal, lines []LedgerLine) ([]LedgerRow, decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	ordered := append([]LedgerLine(nil), lines...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].EntryDate.Equal(ordered[j].EntryDate) {
			return ordered[i].EntryDate.Before(ordered[j].EntryDate)
		}
		return ordered[i].EntryNumber < ordered[j].EntryNumber
	})

	balance := opening
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	rows := make([]LedgerRow, 0, len(ordered))
	for _, line := range ordered {
		balance = balance.Add(line.Debit).Sub(line.Credit)
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
		rows = append(rows, LedgerRow{
			EntryID:     line.EntryID,
			EntryNumber: line.EntryNumber,
			EntryDate:   line.EntryDate,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Balance:     balance.Abs(),
			Side:        balanceSide(balance),
			Narration:   line.Narration,
			CostCenter:  line.CostCenter,
		})
	}
	closing := opening.Add(totalDebit).Sub(totalCredit)
	return rows, totalDebit, totalCredit, closing
}
