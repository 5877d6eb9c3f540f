package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/reports"
	"github.com/brightbooks-hq/brightbooks/internal/observability"
)

// ErrLedgerOutOfBalance is returned when the rebuilt trial balance does not
// balance. Asynq retries will keep re-raising it until someone intervenes.
var ErrLedgerOutOfBalance = errors.New("ledger integrity: trial balance out of balance")

// LedgerIntegrityJob rebuilds the trial balance straight from storage and
// alerts when total debits and credits diverge.
type LedgerIntegrityJob struct {
	reports *reports.Service
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// NewLedgerIntegrityJob wires dependencies for the integrity handler.
func NewLedgerIntegrityJob(reportsSvc *reports.Service, logger *slog.Logger, metrics *observability.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{
		reports: reportsSvc,
		logger:  logger,
		metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskLedgerIntegrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	asOf := j.clock()
	if payload.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return asynq.SkipRetry
		}
		asOf = parsed
	}

	report, err := j.reports.CheckIntegrity(ctx, asOf)
	if err != nil {
		j.observe("failure")
		return err
	}
	if !report.IsBalanced {
		j.observe("out_of_balance")
		j.logger.Error("trial balance out of balance",
			slog.String("as_of", report.AsOf.Format("2006-01-02")),
			slog.String("total_debit", report.TotalDebit.String()),
			slog.String("total_credit", report.TotalCredit.String()),
			slog.Int("accounts", report.Accounts),
		)
		return ErrLedgerOutOfBalance
	}
	j.observe("success")
	j.logger.Info("ledger integrity verified",
		slog.String("as_of", report.AsOf.Format("2006-01-02")),
		slog.Int("accounts", report.Accounts),
	)
	return nil
}

func (j *LedgerIntegrityJob) observe(outcome string) {
	if j.metrics != nil {
		j.metrics.ObserveJob(TaskLedgerIntegrity, outcome)
	}
}
