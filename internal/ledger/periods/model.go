package periods

import "time"

// Period represents one accounting period inside a financial year.
type Period struct {
	ID            int64
	FinancialYear string
	StartDate     time.Time
	EndDate       time.Time
	PeriodNumber  int
	IsYearEnd     bool
	IsClosed      bool
	ClosedBy      *int64
	ClosedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contains reports whether d falls within [StartDate, EndDate].
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
