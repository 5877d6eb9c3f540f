package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	internalshared "github.com/brightbooks-hq/brightbooks/internal/shared"
)

// GroupDirectory answers whether an account group exists. Implemented by the
// groups service; declared here to keep the dependency one-way.
type GroupDirectory interface {
	GroupExists(ctx context.Context, id int64) (bool, error)
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

type Service struct {
	repo   Repository
	groups GroupDirectory
	audit  AuditPort
	now    func() time.Time
}

func NewService(repo Repository, groups GroupDirectory, audit AuditPort) *Service {
	return &Service{repo: repo, groups: groups, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create registers a new leaf account under an existing group.
func (s *Service) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	ok, err := s.groups.GroupExists(ctx, in.GroupID)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, fmt.Errorf("%w: account group %d", shared.ErrNotFound, in.GroupID)
	}
	account, err := s.repo.Insert(ctx, Account{
		Code:               in.Code,
		Name:               in.Name,
		GroupID:            in.GroupID,
		Type:               in.Type,
		OpeningBalance:     in.OpeningBalance,
		OpeningBalanceDate: in.OpeningBalanceDate,
		OpeningSide:        in.OpeningSide,
		AllowDirectPosting: in.AllowDirectPosting,
	})
	if err != nil {
		return Account{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "account.create",
			Entity:   "account",
			EntityID: fmt.Sprintf("%d", account.ID),
			Meta:     map[string]any{"code": account.Code, "type": string(account.Type)},
			At:       s.now().UTC(),
		})
	}
	return account, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}
