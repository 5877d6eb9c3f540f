package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
)

// LineInput describes a journal line supplied by a caller. Exactly one of
// Debit or Credit must be positive; the other stays zero.
type LineInput struct {
	AccountID    int64
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Currency     string
	ExchangeRate decimal.Decimal
	Narration    string
	CostCenter   string
}

// CreateEntryInput groups fields required to create a journal entry.
type CreateEntryInput struct {
	EntryDate       time.Time
	Lines           []LineInput
	CreatedBy       int64
	ReferenceType   string
	ReferenceID     *uuid.UUID
	ReferenceNumber string
	Narration       string
	AutoPost        bool

	// Set internally by the reversal path, never by callers.
	isReversal   bool
	reversalOfID *int64
}

// Validate ensures posting input meets minimum criteria, including exact
// decimal balance of debits against credits.
func (in CreateEntryInput) Validate() error {
	if in.EntryDate.IsZero() {
		return fmt.Errorf("%w: entry date required", shared.ErrValidation)
	}
	if in.CreatedBy == 0 {
		return fmt.Errorf("%w: creator required", shared.ErrValidation)
	}
	if in.ReferenceType == "" {
		return fmt.Errorf("%w: reference type required", shared.ErrValidation)
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("%w: line %d missing account", shared.ErrValidation, idx+1)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d negative amount", shared.ErrValidation, idx+1)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("%w: line %d cannot be both debit and credit", shared.ErrValidation, idx+1)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return fmt.Errorf("%w: line %d has no amount", shared.ErrValidation, idx+1)
		}
		if !line.ExchangeRate.IsZero() && line.ExchangeRate.IsNegative() {
			return fmt.Errorf("%w: line %d negative exchange rate", shared.ErrValidation, idx+1)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// normalized returns the line with currency and rate defaults applied.
func (l LineInput) normalized() LineInput {
	if l.Currency == "" {
		l.Currency = DefaultCurrency
	}
	if l.ExchangeRate.IsZero() {
		l.ExchangeRate = decimal.NewFromInt(1)
	}
	return l
}

func ledgerValidation(msg string) error {
	return fmt.Errorf("%w: %s", shared.ErrValidation, msg)
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID      int64
	ReversalDate time.Time
	ActorID      int64
	Narration    string
}

// Validate ensures reversal input is coherent.
func (in ReverseInput) Validate() error {
	if in.EntryID == 0 {
		return fmt.Errorf("%w: entry id required", shared.ErrValidation)
	}
	if in.ReversalDate.IsZero() {
		return fmt.Errorf("%w: reversal date required", shared.ErrValidation)
	}
	if in.ActorID == 0 {
		return fmt.Errorf("%w: actor required", shared.ErrValidation)
	}
	return nil
}
