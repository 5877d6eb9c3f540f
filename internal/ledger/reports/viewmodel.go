package reports

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders a two-decimal amount with thousands separators for
// the display fields of report payloads.
func formatAmount(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return amountPrinter.Sprintf("%.2f", f)
}

// LedgerRowVM is the JSON row shape of the account ledger report.
type LedgerRowVM struct {
	EntryID     int64  `json:"entry_id"`
	EntryNumber string `json:"entry_number"`
	EntryDate   string `json:"entry_date"`
	Narration   string `json:"narration"`
	CostCenter  string `json:"cost_center,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
	Side        string `json:"side"`
}

// AccountLedgerVM drives the account ledger response.
type AccountLedgerVM struct {
	AccountID      int64         `json:"account_id"`
	AccountCode    string        `json:"account_code"`
	AccountName    string        `json:"account_name"`
	FromDate       string        `json:"from_date"`
	ToDate         string        `json:"to_date"`
	OpeningBalance string        `json:"opening_balance"`
	OpeningSide    string        `json:"opening_side"`
	Rows           []LedgerRowVM `json:"rows"`
	TotalDebit     string        `json:"total_debit"`
	TotalCredit    string        `json:"total_credit"`
	ClosingBalance string        `json:"closing_balance"`
	ClosingSide    string        `json:"closing_side"`
}

// NewAccountLedgerVM maps the service result into the response shape.
func NewAccountLedgerVM(ledger AccountLedger) AccountLedgerVM {
	vm := AccountLedgerVM{
		AccountID:      ledger.AccountID,
		AccountCode:    ledger.AccountCode,
		AccountName:    ledger.AccountName,
		FromDate:       ledger.FromDate.Format("2006-01-02"),
		ToDate:         ledger.ToDate.Format("2006-01-02"),
		OpeningBalance: formatAmount(ledger.OpeningBalance),
		OpeningSide:    ledger.OpeningSide,
		TotalDebit:     formatAmount(ledger.TotalDebit),
		TotalCredit:    formatAmount(ledger.TotalCredit),
		ClosingBalance: formatAmount(ledger.ClosingBalance),
		ClosingSide:    ledger.ClosingSide,
	}
	vm.Rows = make([]LedgerRowVM, len(ledger.Rows))
	for i, row := range ledger.Rows {
		vm.Rows[i] = LedgerRowVM{
			EntryID:     row.EntryID,
			EntryNumber: row.EntryNumber,
			EntryDate:   row.EntryDate.Format("2006-01-02"),
			Narration:   row.Narration,
			CostCenter:  row.CostCenter,
			Debit:       formatAmount(row.Debit),
			Credit:      formatAmount(row.Credit),
			Balance:     formatAmount(row.Balance),
			Side:        row.Side,
		}
	}
	return vm
}

// TrialBalanceRowVM is the JSON row shape of the trial balance report.
type TrialBalanceRowVM struct {
	AccountID int64  `json:"account_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
}

// TrialBalanceVM drives the trial balance response.
type TrialBalanceVM struct {
	AsOf        string              `json:"as_of"`
	Rows        []TrialBalanceRowVM `json:"rows"`
	TotalDebit  string              `json:"total_debit"`
	TotalCredit string              `json:"total_credit"`
	IsBalanced  bool                `json:"is_balanced"`
}

// NewTrialBalanceVM maps the service result into the response shape.
func NewTrialBalanceVM(tb TrialBalance) TrialBalanceVM {
	vm := TrialBalanceVM{
		AsOf:        tb.AsOf.Format("2006-01-02"),
		TotalDebit:  formatAmount(tb.TotalDebit),
		TotalCredit: formatAmount(tb.TotalCredit),
		IsBalanced:  tb.IsBalanced,
	}
	vm.Rows = make([]TrialBalanceRowVM, len(tb.Rows))
	for i, row := range tb.Rows {
		vm.Rows[i] = TrialBalanceRowVM{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Type:      string(row.Type),
			Debit:     formatAmount(row.Debit),
			Credit:    formatAmount(row.Credit),
		}
	}
	return vm
}
