package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	internalshared "github.com/brightbooks-hq/brightbooks/internal/shared"
)

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// MetricsPort counts journal mutations.
type MetricsPort interface {
	ObserveJournalEntry(action string)
}

// BalanceCacheInvalidator drops derived-balance caches after a posting. The
// cache is never ground truth; invalidation keeps its staleness bounded to
// the configured TTL rather than correctness-critical.
type BalanceCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
	cache   BalanceCacheInvalidator
	now     func() time.Time
}

func NewService(repo Repository, audit AuditPort, metrics MetricsPort, cache BalanceCacheInvalidator) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, cache: cache, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) List(ctx context.Context, limit int) ([]JournalEntry, error) {
	return s.repo.List(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// CreateEntry validates, numbers, and persists a balanced entry as a draft,
// optionally posting it in the same transaction. Nothing is retained when any
// line fails validation.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = s.createEntryTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.observe("created")
	if input.AutoPost {
		s.observe("posted")
		s.invalidate(ctx)
	}
	s.recordAudit(ctx, input.CreatedBy, "journal.create", entry.ID, map[string]any{
		"entry_number":   entry.EntryNumber,
		"reference_type": input.ReferenceType,
		"auto_post":      input.AutoPost,
	})
	return entry, nil
}

// createEntryTx is the single write path for entries; the reversal flow runs
// through it inside its own transaction.
func (s *Service) createEntryTx(ctx context.Context, tx TxRepository, in CreateEntryInput) (JournalEntry, error) {
	period, err := tx.FindPeriodByDateForUpdate(ctx, in.EntryDate)
	if err != nil {
		return JournalEntry{}, err
	}
	if period.IsClosed {
		return JournalEntry{}, shared.ErrPeriodClosed
	}

	seq, err := tx.NextEntryNumber(ctx, period.FinancialYear)
	if err != nil {
		return JournalEntry{}, err
	}
	entryNumber := fmt.Sprintf("JV-%s-%06d", period.FinancialYear, seq)

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	lines := make([]JournalLine, 0, len(in.Lines))
	for idx, raw := range in.Lines {
		line := raw.normalized()
		account, err := tx.GetAccountForPosting(ctx, line.AccountID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return JournalEntry{}, fmt.Errorf("%w: line %d references unknown account %d", shared.ErrValidation, idx+1, line.AccountID)
			}
			return JournalEntry{}, err
		}
		if !account.IsActive || !account.AllowDirectPosting {
			return JournalEntry{}, fmt.Errorf("%w (line %d, account %s)", shared.ErrAccountNotPostable, idx+1, account.Code)
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
		lines = append(lines, JournalLine{
			LineNumber:   idx + 1,
			AccountID:    line.AccountID,
			Debit:        line.Debit,
			Credit:       line.Credit,
			Currency:     line.Currency,
			ExchangeRate: line.ExchangeRate,
			BaseDebit:    line.Debit.Mul(line.ExchangeRate).Round(2),
			BaseCredit:   line.Credit.Mul(line.ExchangeRate).Round(2),
			Narration:    line.Narration,
			CostCenter:   line.CostCenter,
		})
	}

	inserted, err := tx.InsertEntry(ctx, JournalEntry{
		EntryNumber:     entryNumber,
		EntryDate:       in.EntryDate,
		PeriodID:        period.ID,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		ReferenceNumber: in.ReferenceNumber,
		Status:          EntryStatusDraft,
		TotalDebit:      totalDebit,
		TotalCredit:     totalCredit,
		IsReversal:      in.isReversal,
		ReversalOfID:    in.reversalOfID,
		Narration:       in.Narration,
		CreatedBy:       in.CreatedBy,
	})
	if err != nil {
		return JournalEntry{}, err
	}
	for i := range lines {
		lines[i].EntryID = inserted.ID
	}
	if err := tx.InsertLines(ctx, inserted.ID, lines); err != nil {
		return JournalEntry{}, err
	}
	inserted.Lines = lines

	if in.AutoPost {
		postedAt := s.now().UTC()
		if err := tx.MarkPosted(ctx, inserted.ID, in.CreatedBy, postedAt); err != nil {
			return JournalEntry{}, err
		}
		inserted.Status = EntryStatusPosted
		inserted.PostedBy = &in.CreatedBy
		inserted.PostedAt = &postedAt
	}
	return inserted, nil
}

// PostEntry finalizes a draft. Posted entries become immutable; the only
// subsequent mutation is the reversed_by link set by ReverseEntry.
func (s *Service) PostEntry(ctx context.Context, entryID, actorID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != EntryStatusDraft {
			return shared.ErrNotDraft
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		if period.IsClosed {
			return shared.ErrPeriodClosed
		}
		postedAt := s.now().UTC()
		if err := tx.MarkPosted(ctx, current.ID, actorID, postedAt); err != nil {
			return err
		}
		current.Status = EntryStatusPosted
		current.PostedBy = &actorID
		current.PostedAt = &postedAt
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.observe("posted")
	s.invalidate(ctx)
	s.recordAudit(ctx, actorID, "journal.post", entry.ID, map[string]any{"entry_number": entry.EntryNumber})
	return entry, nil
}

// ReverseEntry creates and posts the offsetting entry for a posted original,
// linking the pair in the same transaction. An entry reverses at most once.
func (s *Service) ReverseEntry(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return shared.ErrNotPosted
		}
		if original.ReversedByID != nil {
			return shared.ErrAlreadyReversed
		}
		narration := input.Narration
		if narration == "" {
			narration = fmt.Sprintf("Reversal of %s", original.EntryNumber)
		}
		reversal, err = s.createEntryTx(ctx, tx, CreateEntryInput{
			EntryDate:       input.ReversalDate,
			Lines:           reverseLines(original.Lines),
			CreatedBy:       input.ActorID,
			ReferenceType:   ReferenceAdjustment,
			ReferenceNumber: "REV-" + original.EntryNumber,
			Narration:       narration,
			AutoPost:        true,
			isReversal:      true,
			reversalOfID:    &original.ID,
		})
		if err != nil {
			return err
		}
		return tx.MarkReversed(ctx, original.ID, reversal.ID)
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.observe("created")
	s.observe("posted")
	s.observe("reversed")
	s.invalidate(ctx)
	s.recordAudit(ctx, input.ActorID, "journal.reverse", input.EntryID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.EntryNumber,
	})
	return reversal, nil
}

// reverseLines swaps debit and credit per line, keeping currency and rate.
func reverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:    line.AccountID,
			Debit:        line.Credit,
			Credit:       line.Debit,
			Currency:     line.Currency,
			ExchangeRate: line.ExchangeRate,
			Narration:    "Reversal: " + line.Narration,
			CostCenter:   line.CostCenter,
		})
	}
	return out
}

func (s *Service) observe(action string) {
	if s.metrics != nil {
		s.metrics.ObserveJournalEntry(action)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalshared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entryID),
		Meta:     meta,
		At:       s.now().UTC(),
	})
}
