package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/reports"
	"github.com/brightbooks-hq/brightbooks/internal/observability"
)

// TrialBalanceWarmupJob pre-builds trial balances so the first report hit of
// the day lands on a warm cache.
type TrialBalanceWarmupJob struct {
	reports *reports.Service
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// NewTrialBalanceWarmupJob wires dependencies for the warmup handler.
func NewTrialBalanceWarmupJob(reportsSvc *reports.Service, logger *slog.Logger, metrics *observability.Metrics) *TrialBalanceWarmupJob {
	return &TrialBalanceWarmupJob{
		reports: reportsSvc,
		logger:  logger,
		metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes TaskTrialBalanceWarmup tasks.
func (j *TrialBalanceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TrialBalanceWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	dates := make([]time.Time, 0, len(payload.Dates))
	for _, raw := range payload.Dates {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return asynq.SkipRetry
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		dates = append(dates, j.clock().Truncate(24*time.Hour))
	}

	if err := j.reports.WarmTrialBalance(ctx, dates); err != nil {
		if j.metrics != nil {
			j.metrics.ObserveJob(TaskTrialBalanceWarmup, "failure")
		}
		return err
	}
	if j.metrics != nil {
		j.metrics.ObserveJob(TaskTrialBalanceWarmup, "success")
	}
	j.logger.Info("trial balance cache warmed", slog.Int("dates", len(dates)))
	return nil
}
