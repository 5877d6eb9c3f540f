package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
)

// AccountDirectory resolves accounts for report headers and opening balances.
type AccountDirectory interface {
	Get(ctx context.Context, id int64) (accounts.Account, error)
}

type Service struct {
	repo     Repository
	accounts AccountDirectory
	cache    *Cache
}

func NewService(repo Repository, accounts AccountDirectory, cache *Cache) *Service {
	return &Service{repo: repo, accounts: accounts, cache: cache}
}

// openingApplies reports whether an opening balance dated at openedAt belongs
// before the cutoff. A nil date means the opening predates all activity.
func openingApplies(openedAt *time.Time, cutoff time.Time) bool {
	return openedAt == nil || openedAt.Before(cutoff)
}

// AccountLedger projects one account's posted activity over [from, to].
// The window opening folds the account's opening balance with every posted
// line dated before the window, so adjacent windows share a boundary balance.
func (s *Service) AccountLedger(ctx context.Context, accountID int64, from, to time.Time) (AccountLedger, error) {
	if to.Before(from) {
		return AccountLedger{}, fmt.Errorf("%w: to date precedes from date", shared.ErrValidation)
	}
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return AccountLedger{}, err
	}

	opening := decimal.Zero
	if openingApplies(account.OpeningBalanceDate, from) {
		opening = account.SignedOpening()
	}
	priorDebit, priorCredit, err := s.repo.SumBefore(ctx, accountID, from)
	if err != nil {
		return AccountLedger{}, err
	}
	opening = opening.Add(priorDebit).Sub(priorCredit)

	lines, err := s.repo.LinesInRange(ctx, accountID, from, to)
	if err != nil {
		return AccountLedger{}, err
	}
	rows, totalDebit, totalCredit, closing := BuildAccountLedger(opening, lines)
	return AccountLedger{
		AccountID:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		FromDate:       from,
		ToDate:         to,
		OpeningBalance: opening.Abs(),
		OpeningSide:    balanceSide(opening),
		Rows:           rows,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		ClosingBalance: closing.Abs(),
		ClosingSide:    balanceSide(closing),
	}, nil
}

// TrialBalance returns every active account's net position as of a date,
// served through the versioned cache when one is configured.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, keyTrialBalance(asOf)...)
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (interface{}, error) {
		return s.buildTrialBalance(ctx, asOf)
	})
	if err != nil {
		return TrialBalance{}, err
	}
	return tb, nil
}

func (s *Service) buildTrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	balances, err := s.repo.ActiveAccountBalances(ctx, asOf)
	if err != nil {
		return TrialBalance{}, err
	}
	activities := make([]AccountActivity, 0, len(balances))
	for _, b := range balances {
		opening := decimal.Zero
		if openingApplies(b.OpeningBalanceDate, asOf.AddDate(0, 0, 1)) {
			opening = b.OpeningBalance
			if b.OpeningSide == accounts.SideCredit {
				opening = opening.Neg()
			}
		}
		activities = append(activities, AccountActivity{
			AccountID: b.AccountID,
			Code:      b.Code,
			Name:      b.Name,
			Type:      b.Type,
			Opening:   opening,
			Debit:     b.SumDebit,
			Credit:    b.SumCredit,
		})
	}
	return BuildTrialBalance(asOf, activities), nil
}

// IntegrityReport is the scheduled self-check over posted data.
type IntegrityReport struct {
	AsOf        time.Time
	IsBalanced  bool
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Accounts    int
}

// CheckIntegrity rebuilds the trial balance from storage, bypassing the
// cache, and reports whether the books still balance.
func (s *Service) CheckIntegrity(ctx context.Context, asOf time.Time) (IntegrityReport, error) {
	tb, err := s.buildTrialBalance(ctx, asOf)
	if err != nil {
		return IntegrityReport{}, err
	}
	return IntegrityReport{
		AsOf:        tb.AsOf,
		IsBalanced:  tb.IsBalanced,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Accounts:    len(tb.Rows),
	}, nil
}

// WarmTrialBalance pre-populates the cache for a set of report dates.
func (s *Service) WarmTrialBalance(ctx context.Context, dates []time.Time) error {
	var failed []string
	for _, d := range dates {
		if _, err := s.TrialBalance(ctx, d); err != nil {
			failed = append(failed, d.Format("2006-01-02"))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("trial balance warmup failed for %s", strings.Join(failed, ", "))
	}
	return nil
}
