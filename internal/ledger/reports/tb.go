package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
)

// AccountActivity aggregates one account's posted sums as of a date.
// Opening carries the account's opening balance already signed (debit
// positive) and already gated on its opening-balance date.
type AccountActivity struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Opening   decimal.Decimal
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceRow shows the non-zero side of one account's net position.
type TrialBalanceRow struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalance is every active account's net position as of a date.
type TrialBalance struct {
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	IsBalanced  bool
}

// BuildTrialBalance nets each account and totals both columns. Zero-activity
// accounts stay in the report with both sides zero. IsBalanced must hold for
// any data produced by the posting engine; false means corrupted data, not a
// business state.
func BuildTrialBalance(asOf time.Time, activities []AccountActivity) TrialBalance {
	rows := make([]TrialBalanceRow, 0, len(activities))
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, activity := range activities {
		net := activity.Opening.Add(activity.Debit).Sub(activity.Credit)
		row := TrialBalanceRow{
			AccountID: activity.AccountID,
			Code:      activity.Code,
			Name:      activity.Name,
			Type:      activity.Type,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		switch {
		case net.IsPositive():
			row.Debit = net
			totalDebit = totalDebit.Add(net)
		case net.IsNegative():
			row.Credit = net.Abs()
			totalCredit = totalCredit.Add(net.Abs())
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return TrialBalance{
		AsOf:        asOf,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		IsBalanced:  totalDebit.Equal(totalCredit),
	}
}
