package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
)

// CreateAccountInput groups fields required to register an account.
type CreateAccountInput struct {
	Code               string
	Name               string
	GroupID            int64
	Type               AccountType
	OpeningBalance     decimal.Decimal
	OpeningBalanceDate *time.Time
	OpeningSide        BalanceSide
	AllowDirectPosting bool
	ActorID            int64
}

// Validate ensures account input meets minimum criteria.
func (in CreateAccountInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("%w: account code required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: account name required", shared.ErrValidation)
	}
	if in.GroupID == 0 {
		return fmt.Errorf("%w: account group required", shared.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown account type", shared.ErrValidation)
	}
	if in.OpeningBalance.IsNegative() {
		return fmt.Errorf("%w: opening balance cannot be negative", shared.ErrValidation)
	}
	if !in.OpeningBalance.IsZero() {
		if in.OpeningBalanceDate == nil {
			return fmt.Errorf("%w: opening balance requires a date", shared.ErrValidation)
		}
		if in.OpeningSide != SideDebit && in.OpeningSide != SideCredit {
			return fmt.Errorf("%w: opening balance requires a side", shared.ErrValidation)
		}
	}
	return nil
}

// CreateAccountRequest is the JSON shape accepted by the HTTP handler.
type CreateAccountRequest struct {
	Code               string  `json:"code" validate:"required"`
	Name               string  `json:"name" validate:"required"`
	GroupID            int64   `json:"group_id" validate:"required"`
	Type               string  `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	OpeningBalance     string  `json:"opening_balance,omitempty"`
	OpeningBalanceDate *string `json:"opening_balance_date,omitempty"`
	OpeningSide        string  `json:"opening_side,omitempty" validate:"omitempty,oneof=DEBIT CREDIT"`
	AllowDirectPosting *bool   `json:"allow_direct_posting,omitempty"`
}

// ToInput converts the request into a service input.
func (r CreateAccountRequest) ToInput(actorID int64) (CreateAccountInput, error) {
	in := CreateAccountInput{
		Code:               r.Code,
		Name:               r.Name,
		GroupID:            r.GroupID,
		Type:               AccountType(r.Type),
		OpeningSide:        BalanceSide(r.OpeningSide),
		AllowDirectPosting: true,
		ActorID:            actorID,
	}
	if r.AllowDirectPosting != nil {
		in.AllowDirectPosting = *r.AllowDirectPosting
	}
	if r.OpeningBalance != "" {
		amount, err := decimal.NewFromString(r.OpeningBalance)
		if err != nil {
			return CreateAccountInput{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
		in.OpeningBalance = amount
	}
	if r.OpeningBalanceDate != nil {
		d, err := time.Parse("2006-01-02", *r.OpeningBalanceDate)
		if err != nil {
			return CreateAccountInput{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
		}
		in.OpeningBalanceDate = &d
	}
	return in, nil
}
