package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity rebuilds the trial balance and alerts on imbalance.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskTrialBalanceWarmup pre-populates the trial balance cache.
	TaskTrialBalanceWarmup = "ledger:tb_warmup"
)

// LedgerIntegrityPayload scopes one integrity run. AsOf defaults to the
// current date when empty.
type LedgerIntegrityPayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewLedgerIntegrityTask constructs an Asynq task.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// TrialBalanceWarmupPayload lists the report dates to pre-build. Empty means
// today only.
type TrialBalanceWarmupPayload struct {
	Dates []string `json:"dates,omitempty"`
}

// NewTrialBalanceWarmupTask constructs an Asynq task.
func NewTrialBalanceWarmupTask(payload TrialBalanceWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrialBalanceWarmup, data), nil
}
