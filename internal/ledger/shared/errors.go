// Package shared holds the error taxonomy used across the ledger engine.
package shared

import (
	"errors"
	"fmt"
)

// The three error classes every mutating operation reports. Callers classify
// with errors.Is against these and recover accordingly: validation errors by
// correcting input, state errors by re-fetching current state, integrity
// errors by regenerating the conflicting value.
var (
	ErrValidation = errors.New("ledger: validation failed")
	ErrState      = errors.New("ledger: invalid state transition")
	ErrIntegrity  = errors.New("ledger: integrity constraint violated")
	ErrNotFound   = errors.New("ledger: record not found")
)

// Validation failures.
var (
	// ErrUnbalanced indicates sum of debits != sum of credits.
	ErrUnbalanced = fmt.Errorf("%w: journal lines must balance", ErrValidation)
	// ErrTooFewLines indicates fewer than two lines.
	ErrTooFewLines = fmt.Errorf("%w: journal requires at least two lines", ErrValidation)
	// ErrNoPeriod indicates no period contains the entry date.
	ErrNoPeriod = fmt.Errorf("%w: no accounting period covers the date", ErrValidation)
	// ErrPeriodClosed indicates the resolved period is closed.
	ErrPeriodClosed = fmt.Errorf("%w: accounting period is closed", ErrValidation)
	// ErrAccountNotPostable indicates an inactive or non-posting account on a line.
	ErrAccountNotPostable = fmt.Errorf("%w: account is inactive or does not allow direct posting", ErrValidation)
	// ErrPeriodOverlap indicates a new financial year collides with existing periods.
	ErrPeriodOverlap = fmt.Errorf("%w: financial year overlaps existing periods", ErrValidation)
)

// State failures.
var (
	// ErrNotDraft indicates posting anything other than a draft.
	ErrNotDraft = fmt.Errorf("%w: entry is not a draft", ErrState)
	// ErrNotPosted indicates reversing an entry that never posted.
	ErrNotPosted = fmt.Errorf("%w: entry is not posted", ErrState)
	// ErrAlreadyReversed indicates a second reversal attempt.
	ErrAlreadyReversed = fmt.Errorf("%w: entry already reversed", ErrState)
	// ErrAlreadyClosed indicates closing a closed period.
	ErrAlreadyClosed = fmt.Errorf("%w: period already closed", ErrState)
)

// Integrity failures surfaced from uniqueness constraints.
var (
	// ErrDuplicateCode indicates an account or group code collision.
	ErrDuplicateCode = fmt.Errorf("%w: code already exists", ErrIntegrity)
	// ErrDuplicateEntryNumber indicates an entry number collision.
	ErrDuplicateEntryNumber = fmt.Errorf("%w: entry number already exists", ErrIntegrity)
)
