package journal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/periods"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	internalshared "github.com/brightbooks-hq/brightbooks/internal/shared"
	_ "github.com/brightbooks-hq/brightbooks/testing"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu sync.Mutex

	periods  map[int64]*periods.Period
	accounts map[int64]PostingAccount

	entries     map[int64]*JournalEntry
	lines       map[int64][]JournalLine
	nextEntryID int64
	sequences   map[string]int64

	txError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		periods:     make(map[int64]*periods.Period),
		accounts:    make(map[int64]PostingAccount),
		entries:     make(map[int64]*JournalEntry),
		lines:       make(map[int64][]JournalLine),
		sequences:   make(map[string]int64),
		nextEntryID: 1,
	}
}

func (m *mockRepository) addPeriod(p periods.Period) {
	m.periods[p.ID] = &p
}

func (m *mockRepository) addAccount(a PostingAccount) {
	m.accounts[a.ID] = a
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Snapshot so a failed tx leaves nothing behind.
	backup := m.snapshot()
	if err := fn(ctx, &mockTxRepo{mock: m}); err != nil {
		m.restore(backup)
		return err
	}
	return nil
}

type repoState struct {
	entries     map[int64]*JournalEntry
	lines       map[int64][]JournalLine
	sequences   map[string]int64
	nextEntryID int64
}

func (m *mockRepository) snapshot() repoState {
	st := repoState{
		entries:     make(map[int64]*JournalEntry, len(m.entries)),
		lines:       make(map[int64][]JournalLine, len(m.lines)),
		sequences:   make(map[string]int64, len(m.sequences)),
		nextEntryID: m.nextEntryID,
	}
	for id, e := range m.entries {
		clone := *e
		st.entries[id] = &clone
	}
	for id, ls := range m.lines {
		st.lines[id] = append([]JournalLine(nil), ls...)
	}
	for fy, n := range m.sequences {
		st.sequences[fy] = n
	}
	return st
}

func (m *mockRepository) restore(st repoState) {
	m.entries = st.entries
	m.lines = st.lines
	m.sequences = st.sequences
	m.nextEntryID = st.nextEntryID
}

func (m *mockRepository) List(ctx context.Context, limit int) ([]JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return JournalEntry{}, shared.ErrNotFound
	}
	entry := *e
	entry.Lines = append([]JournalLine(nil), m.lines[id]...)
	return entry, nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) FindPeriodByDateForUpdate(ctx context.Context, d time.Time) (periods.Period, error) {
	var best *periods.Period
	for _, p := range t.mock.periods {
		if p.Contains(d) && (best == nil || p.StartDate.Before(best.StartDate)) {
			best = p
		}
	}
	if best == nil {
		return periods.Period{}, shared.ErrNoPeriod
	}
	return *best, nil
}

func (t *mockTxRepo) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	p, ok := t.mock.periods[periodID]
	if !ok {
		return periods.Period{}, shared.ErrNotFound
	}
	return *p, nil
}

func (t *mockTxRepo) NextEntryNumber(ctx context.Context, financialYear string) (int64, error) {
	t.mock.sequences[financialYear]++
	return t.mock.sequences[financialYear], nil
}

func (t *mockTxRepo) GetAccountForPosting(ctx context.Context, accountID int64) (PostingAccount, error) {
	a, ok := t.mock.accounts[accountID]
	if !ok {
		return PostingAccount{}, shared.ErrNotFound
	}
	return a, nil
}

func (t *mockTxRepo) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	for _, existing := range t.mock.entries {
		if existing.EntryNumber == entry.EntryNumber {
			return JournalEntry{}, shared.ErrDuplicateEntryNumber
		}
	}
	entry.ID = t.mock.nextEntryID
	t.mock.nextEntryID++
	entry.CreatedAt = time.Now().UTC()
	clone := entry
	t.mock.entries[entry.ID] = &clone
	return entry, nil
}

func (t *mockTxRepo) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	t.mock.lines[entryID] = append([]JournalLine(nil), lines...)
	return nil
}

func (t *mockTxRepo) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	e, ok := t.mock.entries[id]
	if !ok {
		return JournalEntry{}, shared.ErrNotFound
	}
	entry := *e
	entry.Lines = append([]JournalLine(nil), t.mock.lines[id]...)
	return entry, nil
}

func (t *mockTxRepo) MarkPosted(ctx context.Context, entryID, actorID int64, at time.Time) error {
	e, ok := t.mock.entries[entryID]
	if !ok {
		return shared.ErrNotFound
	}
	if e.Status != EntryStatusDraft {
		return shared.ErrNotDraft
	}
	e.Status = EntryStatusPosted
	e.PostedBy = &actorID
	e.PostedAt = &at
	return nil
}

func (t *mockTxRepo) MarkReversed(ctx context.Context, originalID, reversalID int64) error {
	e, ok := t.mock.entries[originalID]
	if !ok {
		return shared.ErrNotFound
	}
	if e.ReversedByID != nil {
		return shared.ErrAlreadyReversed
	}
	e.ReversedByID = &reversalID
	return nil
}

type mockAudit struct {
	logs []internalshared.AuditLog
}

func (m *mockAudit) Record(ctx context.Context, log internalshared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockMetrics struct {
	actions []string
}

func (m *mockMetrics) ObserveJournalEntry(action string) {
	m.actions = append(m.actions, action)
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) {
	m.calls++
}

// ============================================================================
// FIXTURES
// ============================================================================

func openPeriod() periods.Period {
	return periods.Period{
		ID:            1,
		FinancialYear: "2025-2026",
		StartDate:     time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC),
		PeriodNumber:  1,
	}
}

func seedAccounts(repo *mockRepository) {
	repo.addAccount(PostingAccount{ID: 1, Code: "1100", IsActive: true, AllowDirectPosting: true})
	repo.addAccount(PostingAccount{ID: 2, Code: "4100", IsActive: true, AllowDirectPosting: true})
	repo.addAccount(PostingAccount{ID: 3, Code: "1000", IsActive: true, AllowDirectPosting: false})
}

func newTestService(repo *mockRepository) (*Service, *mockAudit, *mockMetrics, *mockInvalidator) {
	audit := &mockAudit{}
	metrics := &mockMetrics{}
	invalidator := &mockInvalidator{}
	svc := NewService(repo, audit, metrics, invalidator)
	svc.WithNow(func() time.Time {
		return time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC)
	})
	return svc, audit, metrics, invalidator
}

func saleInput(autoPost bool) CreateEntryInput {
	return CreateEntryInput{
		EntryDate:     time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy:     7,
		ReferenceType: ReferenceManual,
		Narration:     "Cash sale",
		AutoPost:      autoPost,
		Lines: []LineInput{
			{AccountID: 1, Debit: amount("1000.00"), Narration: "Cash received"},
			{AccountID: 2, Credit: amount("1000.00"), Narration: "Sales revenue"},
		},
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateEntryAutoPost(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, audit, metrics, invalidator := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), saleInput(true))
	require.NoError(t, err)

	assert.Equal(t, "JV-2025-2026-000001", entry.EntryNumber)
	assert.Equal(t, EntryStatusPosted, entry.Status)
	require.NotNil(t, entry.PostedBy)
	assert.Equal(t, int64(7), *entry.PostedBy)
	assert.True(t, entry.TotalDebit.Equal(amount("1000.00")))
	assert.True(t, entry.TotalCredit.Equal(amount("1000.00")))
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, 1, entry.Lines[0].LineNumber)
	assert.True(t, entry.Lines[0].BaseDebit.Equal(amount("1000.00")))

	assert.Equal(t, []string{"created", "posted"}, metrics.actions)
	assert.Equal(t, 1, invalidator.calls)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "journal.create", audit.logs[0].Action)
}

func TestCreateEntryDraftDoesNotInvalidateCache(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, metrics, invalidator := newTestService(repo)

	entry, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)

	assert.Equal(t, EntryStatusDraft, entry.Status)
	assert.Nil(t, entry.PostedAt)
	assert.Equal(t, []string{"created"}, metrics.actions)
	assert.Zero(t, invalidator.calls)
}

func TestCreateEntryUnbalancedPersistsNothing(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	in := saleInput(true)
	in.Lines[1].Credit = amount("999.99")

	_, err := svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	assert.Empty(t, repo.entries)
	assert.Empty(t, repo.lines)
}

func TestCreateEntryBadAccountRollsBack(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	in := saleInput(true)
	in.Lines[1].AccountID = 99

	_, err := svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.entries)
	assert.Zero(t, repo.sequences["2025-2026"], "sequence must not advance on rollback")
}

func TestCreateEntryNonPostableAccount(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	in := saleInput(true)
	in.Lines[0].AccountID = 3

	_, err := svc.CreateEntry(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrAccountNotPostable)
}

func TestCreateEntryNoPeriod(t *testing.T) {
	repo := newMockRepository()
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	_, err := svc.CreateEntry(context.Background(), saleInput(true))
	require.ErrorIs(t, err, shared.ErrNoPeriod)
}

func TestCreateEntryClosedPeriod(t *testing.T) {
	repo := newMockRepository()
	p := openPeriod()
	p.IsClosed = true
	repo.addPeriod(p)
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	_, err := svc.CreateEntry(context.Background(), saleInput(true))
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestEntryNumbersAdvancePerFinancialYear(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	first, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)
	second, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)

	assert.Equal(t, "JV-2025-2026-000001", first.EntryNumber)
	assert.Equal(t, "JV-2025-2026-000002", second.EntryNumber)
}

func TestCreateEntryForeignCurrencyBaseAmounts(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	in := saleInput(false)
	in.Lines = []LineInput{
		{AccountID: 1, Debit: amount("100.00"), Currency: "USD", ExchangeRate: amount("83.175")},
		{AccountID: 2, Credit: amount("100.00"), Currency: "USD", ExchangeRate: amount("83.175")},
	}

	entry, err := svc.CreateEntry(context.Background(), in)
	require.NoError(t, err)

	// 100 * 83.175 = 8317.50 after rounding to 2 places.
	assert.True(t, entry.Lines[0].BaseDebit.Equal(amount("8317.50")), "got %s", entry.Lines[0].BaseDebit)
	assert.True(t, entry.Lines[1].BaseCredit.Equal(amount("8317.50")))
	assert.Equal(t, "USD", entry.Lines[0].Currency)
}

func TestPostEntry(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, metrics, invalidator := newTestService(repo)

	draft, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)

	posted, err := svc.PostEntry(context.Background(), draft.ID, 9)
	require.NoError(t, err)

	assert.Equal(t, EntryStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedBy)
	assert.Equal(t, int64(9), *posted.PostedBy)
	assert.Contains(t, metrics.actions, "posted")
	assert.Equal(t, 1, invalidator.calls)
}

func TestPostEntryTwice(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	draft, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)
	_, err = svc.PostEntry(context.Background(), draft.ID, 9)
	require.NoError(t, err)

	_, err = svc.PostEntry(context.Background(), draft.ID, 9)
	require.ErrorIs(t, err, shared.ErrNotDraft)
}

func TestPostEntryIntoClosedPeriod(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	draft, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)

	// Period closes while the draft is pending.
	repo.periods[1].IsClosed = true

	_, err = svc.PostEntry(context.Background(), draft.ID, 9)
	require.ErrorIs(t, err, shared.ErrPeriodClosed)

	got, err := svc.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, EntryStatusDraft, got.Status)
}

func TestReverseEntry(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, metrics, _ := newTestService(repo)

	original, err := svc.CreateEntry(context.Background(), saleInput(true))
	require.NoError(t, err)

	reversal, err := svc.ReverseEntry(context.Background(), ReverseInput{
		EntryID:      original.ID,
		ReversalDate: time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
		ActorID:      9,
	})
	require.NoError(t, err)

	assert.Equal(t, EntryStatusPosted, reversal.Status)
	assert.True(t, reversal.IsReversal)
	require.NotNil(t, reversal.ReversalOfID)
	assert.Equal(t, original.ID, *reversal.ReversalOfID)
	assert.Equal(t, ReferenceAdjustment, reversal.ReferenceType)
	assert.Equal(t, "REV-"+original.EntryNumber, reversal.ReferenceNumber)
	assert.Equal(t, fmt.Sprintf("Reversal of %s", original.EntryNumber), reversal.Narration)

	// Lines swap sides and net to zero against the original.
	require.Len(t, reversal.Lines, 2)
	assert.Equal(t, original.Lines[0].AccountID, reversal.Lines[0].AccountID)
	assert.True(t, reversal.Lines[0].Credit.Equal(original.Lines[0].Debit))
	assert.True(t, reversal.Lines[1].Debit.Equal(original.Lines[1].Credit))
	for i := range reversal.Lines {
		net := original.Lines[i].Debit.Sub(original.Lines[i].Credit).
			Add(reversal.Lines[i].Debit.Sub(reversal.Lines[i].Credit))
		assert.True(t, net.IsZero(), "line %d must net to zero", i+1)
	}

	// Original now carries the back link.
	got, err := svc.Get(context.Background(), original.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReversedByID)
	assert.Equal(t, reversal.ID, *got.ReversedByID)

	assert.Contains(t, metrics.actions, "reversed")
}

func TestReverseEntryTwice(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	original, err := svc.CreateEntry(context.Background(), saleInput(true))
	require.NoError(t, err)

	in := ReverseInput{
		EntryID:      original.ID,
		ReversalDate: time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
		ActorID:      9,
	}
	first, err := svc.ReverseEntry(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.ReverseEntry(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrAlreadyReversed)

	// First reversal survives, no extra entries appear.
	got, err := svc.Get(context.Background(), original.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReversedByID)
	assert.Equal(t, first.ID, *got.ReversedByID)
	assert.Len(t, repo.entries, 2)
}

func TestReverseDraftEntry(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	draft, err := svc.CreateEntry(context.Background(), saleInput(false))
	require.NoError(t, err)

	_, err = svc.ReverseEntry(context.Background(), ReverseInput{
		EntryID:      draft.ID,
		ReversalDate: time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
		ActorID:      9,
	})
	require.ErrorIs(t, err, shared.ErrNotPosted)
}

func TestReverseEntryIntoClosedPeriodRollsBack(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(openPeriod())
	seedAccounts(repo)
	svc, _, _, _ := newTestService(repo)

	original, err := svc.CreateEntry(context.Background(), saleInput(true))
	require.NoError(t, err)

	repo.periods[1].IsClosed = true

	_, err = svc.ReverseEntry(context.Background(), ReverseInput{
		EntryID:      original.ID,
		ReversalDate: time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
		ActorID:      9,
	})
	require.ErrorIs(t, err, shared.ErrPeriodClosed)

	got, err := svc.Get(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReversedByID)
	assert.Len(t, repo.entries, 1)
}
