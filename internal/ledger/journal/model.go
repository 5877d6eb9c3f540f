package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
)

// Reference types recorded on entries. Collaborator modules (payroll,
// invoicing, loans, GST filing) pass their own type; reversals always carry
// ReferenceAdjustment.
const (
	ReferenceManual     = "MANUAL"
	ReferenceAdjustment = "ADJUSTMENT"
)

// DefaultCurrency is assumed when a line omits its currency.
const DefaultCurrency = "INR"

// JournalEntry captures the entry header and posting metadata.
type JournalEntry struct {
	ID              int64
	EntryNumber     string
	EntryDate       time.Time
	PeriodID        int64
	ReferenceType   string
	ReferenceID     *uuid.UUID
	ReferenceNumber string
	Status          EntryStatus
	TotalDebit      decimal.Decimal
	TotalCredit     decimal.Decimal
	IsReversal      bool
	ReversalOfID    *int64
	ReversedByID    *int64
	Narration       string
	CreatedBy       int64
	CreatedAt       time.Time
	PostedBy        *int64
	PostedAt        *time.Time
	Lines           []JournalLine
}

// JournalLine stores one debit or credit leg of an entry. Base amounts are
// the line amount converted at ExchangeRate and quantized to 2dp.
type JournalLine struct {
	ID           int64
	EntryID      int64
	LineNumber   int
	AccountID    int64
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Currency     string
	ExchangeRate decimal.Decimal
	BaseDebit    decimal.Decimal
	BaseCredit   decimal.Decimal
	Narration    string
	CostCenter   string
	CreatedAt    time.Time
}
