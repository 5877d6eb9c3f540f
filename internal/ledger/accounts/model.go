package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// BalanceSide names the side an opening balance sits on.
type BalanceSide string

const (
	SideDebit  BalanceSide = "DEBIT"
	SideCredit BalanceSide = "CREDIT"
)

// Account models a postable leaf in the chart of accounts.
type Account struct {
	ID                 int64
	Code               string
	Name               string
	GroupID            int64
	Type               AccountType
	OpeningBalance     decimal.Decimal
	OpeningBalanceDate *time.Time
	OpeningSide        BalanceSide
	AllowDirectPosting bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SignedOpening returns the opening balance with debit positive, credit negative.
func (a Account) SignedOpening() decimal.Decimal {
	if a.OpeningSide == SideCredit {
		return a.OpeningBalance.Neg()
	}
	return a.OpeningBalance
}
