package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/brightbooks-hq/brightbooks/testing"
)

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildAccountLedgerRunningBalance(t *testing.T) {
	lines := []LedgerLine{
		{EntryID: 2, EntryNumber: "JV-2025-000002", EntryDate: date(2025, time.April, 10), Credit: amount("300.00")},
		{EntryID: 1, EntryNumber: "JV-2025-000001", EntryDate: date(2025, time.April, 5), Debit: amount("1000.00")},
	}

	rows, totalDebit, totalCredit, closing := BuildAccountLedger(amount("500.00"), lines)
	require.Len(t, rows, 2)

	assert.Equal(t, "JV-2025-000001", rows[0].EntryNumber)
	assert.True(t, rows[0].Balance.Equal(amount("1500.00")))
	assert.Equal(t, "Dr", rows[0].Side)
	assert.True(t, rows[1].Balance.Equal(amount("1200.00")))

	assert.True(t, totalDebit.Equal(amount("1000.00")))
	assert.True(t, totalCredit.Equal(amount("300.00")))
	assert.True(t, closing.Equal(amount("1200.00")))
}

func TestBuildAccountLedgerSameDateTieBreak(t *testing.T) {
	d := date(2025, time.April, 10)
	lines := []LedgerLine{
		{EntryID: 5, EntryNumber: "JV-2025-000005", EntryDate: d, Debit: amount("10.00")},
		{EntryID: 3, EntryNumber: "JV-2025-000003", EntryDate: d, Debit: amount("10.00")},
		{EntryID: 4, EntryNumber: "JV-2025-000004", EntryDate: d, Debit: amount("10.00")},
	}

	rows, _, _, _ := BuildAccountLedger(decimal.Zero, lines)
	require.Len(t, rows, 3)
	assert.Equal(t, "JV-2025-000003", rows[0].EntryNumber)
	assert.Equal(t, "JV-2025-000004", rows[1].EntryNumber)
	assert.Equal(t, "JV-2025-000005", rows[2].EntryNumber)
}

func TestBuildAccountLedgerCreditBalance(t *testing.T) {
	lines := []LedgerLine{
		{EntryID: 1, EntryNumber: "JV-2025-000001", EntryDate: date(2025, time.April, 5), Credit: amount("800.00")},
	}

	rows, _, _, closing := BuildAccountLedger(amount("100.00"), lines)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Balance.Equal(amount("700.00")), "balance shown as magnitude")
	assert.Equal(t, "Cr", rows[0].Side)
	assert.True(t, closing.Equal(amount("-700.00")), "closing stays signed")
}

func TestBuildAccountLedgerEmptyWindow(t *testing.T) {
	rows, totalDebit, totalCredit, closing := BuildAccountLedger(amount("250.00"), nil)

	assert.Empty(t, rows)
	assert.True(t, totalDebit.IsZero())
	assert.True(t, totalCredit.IsZero())
	assert.True(t, closing.Equal(amount("250.00")))
}
