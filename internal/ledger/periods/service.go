package periods

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	internalshared "github.com/brightbooks-hq/brightbooks/internal/shared"
)

// PeriodsPerYear is the number of monthly periods generated for a financial year.
const PeriodsPerYear = 12

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// CreateFinancialYearInput bundles parameters for financial year generation.
type CreateFinancialYearInput struct {
	Label     string
	StartDate time.Time
	ActorID   int64
}

// Validate ensures financial year input is coherent.
func (in CreateFinancialYearInput) Validate() error {
	if strings.TrimSpace(in.Label) == "" {
		return fmt.Errorf("%w: financial year label required", shared.ErrValidation)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date required", shared.ErrValidation)
	}
	return nil
}

type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GeneratePeriods computes the twelve consecutive monthly periods for a year
// starting at start. Month arithmetic rides on the calendar, so a December
// start rolls into January of the following year and each period ends the day
// before the next one begins.
func GeneratePeriods(label string, start time.Time) []Period {
	batch := make([]Period, 0, PeriodsPerYear)
	for i := 0; i < PeriodsPerYear; i++ {
		periodStart := start.AddDate(0, i, 0)
		periodEnd := start.AddDate(0, i+1, 0).AddDate(0, 0, -1)
		batch = append(batch, Period{
			FinancialYear: label,
			StartDate:     periodStart,
			EndDate:       periodEnd,
			PeriodNumber:  i + 1,
			IsYearEnd:     i == PeriodsPerYear-1,
		})
	}
	return batch
}

// CreateFinancialYear emits the twelve periods for the year in one batch.
func (s *Service) CreateFinancialYear(ctx context.Context, in CreateFinancialYearInput) ([]Period, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	batch := GeneratePeriods(in.Label, in.StartDate)
	inserted, err := s.repo.InsertFinancialYear(ctx, batch)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "financial_year.create",
			Entity:   "financial_year",
			EntityID: in.Label,
			Meta:     map[string]any{"start_date": in.StartDate.Format("2006-01-02"), "periods": len(inserted)},
			At:       s.now().UTC(),
		})
	}
	return inserted, nil
}

// FindByDate returns the single period containing d.
func (s *Service) FindByDate(ctx context.Context, d time.Time) (Period, error) {
	return s.repo.FindByDate(ctx, d)
}

func (s *Service) ListByYear(ctx context.Context, financialYear string) ([]Period, error) {
	return s.repo.ListByYear(ctx, financialYear)
}

// Close marks the period closed. There is no reopen.
func (s *Service) Close(ctx context.Context, id int64, actorID int64) (Period, error) {
	closed, err := s.repo.Close(ctx, id, actorID, s.now().UTC())
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "period.close",
			Entity:   "accounting_period",
			EntityID: fmt.Sprintf("%d", closed.ID),
			Meta:     map[string]any{"financial_year": closed.FinancialYear, "period_number": closed.PeriodNumber},
			At:       s.now().UTC(),
		})
	}
	return closed, nil
}
