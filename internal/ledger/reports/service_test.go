package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
)

type mockRepo struct {
	lines         []LedgerLine
	balances      []AccountBalanceRow
	balancesCalls int
}

func (m *mockRepo) SumBefore(ctx context.Context, accountID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, l := range m.lines {
		if l.EntryDate.Before(before) {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	return debit, credit, nil
}

func (m *mockRepo) LinesInRange(ctx context.Context, accountID int64, from, to time.Time) ([]LedgerLine, error) {
	var out []LedgerLine
	for _, l := range m.lines {
		if !l.EntryDate.Before(from) && !l.EntryDate.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockRepo) ActiveAccountBalances(ctx context.Context, asOf time.Time) ([]AccountBalanceRow, error) {
	m.balancesCalls++
	return m.balances, nil
}

type mockAccounts struct {
	account accounts.Account
}

func (m *mockAccounts) Get(ctx context.Context, id int64) (accounts.Account, error) {
	if id != m.account.ID {
		return accounts.Account{}, shared.ErrNotFound
	}
	return m.account, nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, nil)
}

func cashAccount() accounts.Account {
	opened := date(2025, time.April, 1)
	return accounts.Account{
		ID:                 1,
		Code:               "1100",
		Name:               "Cash",
		Type:               accounts.AccountTypeAsset,
		OpeningBalance:     amount("500.00"),
		OpeningBalanceDate: &opened,
		OpeningSide:        accounts.SideDebit,
		IsActive:           true,
	}
}

func TestAccountLedgerWindowContiguity(t *testing.T) {
	repo := &mockRepo{lines: []LedgerLine{
		{EntryID: 1, EntryNumber: "JV-2025-000001", EntryDate: date(2025, time.April, 10), Debit: amount("1000.00")},
		{EntryID: 2, EntryNumber: "JV-2025-000002", EntryDate: date(2025, time.May, 5), Credit: amount("200.00")},
	}}
	svc := NewService(repo, &mockAccounts{account: cashAccount()}, nil)

	april, err := svc.AccountLedger(context.Background(), 1, date(2025, time.April, 2), date(2025, time.April, 30))
	require.NoError(t, err)
	may, err := svc.AccountLedger(context.Background(), 1, date(2025, time.May, 1), date(2025, time.May, 31))
	require.NoError(t, err)

	// Opening folds in balances dated before the window.
	assert.True(t, april.OpeningBalance.Equal(amount("500.00")))
	assert.True(t, april.ClosingBalance.Equal(amount("1500.00")))

	// May opens exactly where April closed.
	assert.True(t, may.OpeningBalance.Equal(april.ClosingBalance),
		"may opening %s vs april closing %s", may.OpeningBalance, april.ClosingBalance)
	assert.True(t, may.ClosingBalance.Equal(amount("1300.00")))
}

func TestAccountLedgerOpeningBalanceInsideWindow(t *testing.T) {
	// Window starts on the opening balance date itself, so the opening does
	// not fold into the carried-forward figure.
	repo := &mockRepo{}
	svc := NewService(repo, &mockAccounts{account: cashAccount()}, nil)

	ledger, err := svc.AccountLedger(context.Background(), 1, date(2025, time.April, 1), date(2025, time.April, 30))
	require.NoError(t, err)
	assert.True(t, ledger.OpeningBalance.IsZero())
}

func TestAccountLedgerInvalidWindow(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockAccounts{account: cashAccount()}, nil)

	_, err := svc.AccountLedger(context.Background(), 1, date(2025, time.May, 1), date(2025, time.April, 1))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAccountLedgerUnknownAccount(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockAccounts{account: cashAccount()}, nil)

	_, err := svc.AccountLedger(context.Background(), 42, date(2025, time.April, 1), date(2025, time.April, 30))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTrialBalanceCaching(t *testing.T) {
	opened := date(2025, time.March, 31)
	repo := &mockRepo{balances: []AccountBalanceRow{
		{AccountID: 1, Code: "1100", Name: "Cash", Type: accounts.AccountTypeAsset, OpeningBalance: amount("500.00"), OpeningBalanceDate: &opened, OpeningSide: accounts.SideDebit, SumDebit: amount("1000.00")},
		{AccountID: 3, Code: "3100", Name: "Capital", Type: accounts.AccountTypeEquity, OpeningBalance: amount("500.00"), OpeningBalanceDate: &opened, OpeningSide: accounts.SideCredit},
		{AccountID: 2, Code: "4100", Name: "Sales", Type: accounts.AccountTypeIncome, SumCredit: amount("1000.00")},
	}}
	cache := newTestCache(t)
	svc := NewService(repo, &mockAccounts{account: cashAccount()}, cache)

	ctx := context.Background()
	asOf := date(2025, time.April, 30)

	first, err := svc.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, first.Rows, 3)
	assert.True(t, first.IsBalanced)
	assert.True(t, first.Rows[0].Debit.Equal(amount("1500.00")))
	assert.True(t, first.Rows[1].Credit.Equal(amount("500.00")))
	assert.Equal(t, 1, repo.balancesCalls)

	// Second read is served from cache.
	second, err := svc.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.balancesCalls)
	assert.True(t, second.TotalDebit.Equal(first.TotalDebit))

	// Invalidation bumps the version so the next read rebuilds.
	cache.Invalidate(ctx)
	_, err = svc.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.balancesCalls)
}

func TestTrialBalanceWithoutCache(t *testing.T) {
	repo := &mockRepo{balances: []AccountBalanceRow{
		{AccountID: 1, Code: "1100", Name: "Cash", Type: accounts.AccountTypeAsset},
	}}
	svc := NewService(repo, &mockAccounts{account: cashAccount()}, nil)

	tb, err := svc.TrialBalance(context.Background(), date(2025, time.April, 30))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 1)
}

func TestCheckIntegrityBypassesCache(t *testing.T) {
	repo := &mockRepo{balances: []AccountBalanceRow{
		{AccountID: 1, Code: "1100", Name: "Cash", Type: accounts.AccountTypeAsset, SumDebit: amount("100.00")},
	}}
	cache := newTestCache(t)
	svc := NewService(repo, &mockAccounts{account: cashAccount()}, cache)

	report, err := svc.CheckIntegrity(context.Background(), date(2025, time.April, 30))
	require.NoError(t, err)
	assert.False(t, report.IsBalanced)
	assert.Equal(t, 1, report.Accounts)
	assert.Equal(t, 1, repo.balancesCalls)

	// A second check hits storage again.
	_, err = svc.CheckIntegrity(context.Background(), date(2025, time.April, 30))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.balancesCalls)
}
