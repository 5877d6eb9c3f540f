package groups

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	internalshared "github.com/brightbooks-hq/brightbooks/internal/shared"
)

// AccountLister supplies leaf accounts for tree assembly.
type AccountLister interface {
	List(ctx context.Context) ([]accounts.Account, error)
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// CreateGroupInput groups fields required to create an account group.
type CreateGroupInput struct {
	Name     string
	Code     string
	Type     accounts.AccountType
	ParentID *int64
	Sequence int
	IsSystem bool
	ActorID  int64
}

// Validate ensures group input meets minimum criteria.
func (in CreateGroupInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: group name required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("%w: group code required", shared.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown group type", shared.ErrValidation)
	}
	return nil
}

type Service struct {
	repo     Repository
	accounts AccountLister
	audit    AuditPort
	now      func() time.Time
}

func NewService(repo Repository, accountLister AccountLister, audit AuditPort) *Service {
	return &Service{repo: repo, accounts: accountLister, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create adds a group, optionally nested under a parent of the same type.
func (s *Service) Create(ctx context.Context, in CreateGroupInput) (AccountGroup, error) {
	if err := in.Validate(); err != nil {
		return AccountGroup{}, err
	}
	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return AccountGroup{}, fmt.Errorf("%w: parent group %d", shared.ErrNotFound, *in.ParentID)
			}
			return AccountGroup{}, err
		}
		if parent.Type != in.Type {
			return AccountGroup{}, fmt.Errorf("%w: group type must match parent type %s", shared.ErrValidation, parent.Type)
		}
	}
	group, err := s.repo.Insert(ctx, AccountGroup{
		Name:     in.Name,
		Code:     in.Code,
		Type:     in.Type,
		ParentID: in.ParentID,
		Sequence: in.Sequence,
		IsSystem: in.IsSystem,
	})
	if err != nil {
		return AccountGroup{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "account_group.create",
			Entity:   "account_group",
			EntityID: fmt.Sprintf("%d", group.ID),
			Meta:     map[string]any{"code": group.Code, "type": string(group.Type)},
			At:       s.now().UTC(),
		})
	}
	return group, nil
}

func (s *Service) Get(ctx context.Context, id int64) (AccountGroup, error) {
	return s.repo.Get(ctx, id)
}

// GroupExists implements accounts.GroupDirectory.
func (s *Service) GroupExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Tree assembles the chart of accounts: root groups with nested children and
// leaf accounts, each level ordered by (sequence, name).
func (s *Service) Tree(ctx context.Context) ([]TreeNode, error) {
	allGroups, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	allAccounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	accountsByGroup := make(map[int64][]accounts.Account)
	for _, a := range allAccounts {
		accountsByGroup[a.GroupID] = append(accountsByGroup[a.GroupID], a)
	}
	for _, list := range accountsByGroup {
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	}

	childrenByParent := make(map[int64][]AccountGroup)
	var roots []AccountGroup
	for _, g := range allGroups {
		if g.ParentID == nil {
			roots = append(roots, g)
			continue
		}
		childrenByParent[*g.ParentID] = append(childrenByParent[*g.ParentID], g)
	}

	var build func(group AccountGroup) TreeNode
	build = func(group AccountGroup) TreeNode {
		node := TreeNode{AccountGroup: group, Accounts: accountsByGroup[group.ID]}
		for _, child := range childrenByParent[group.ID] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	tree := make([]TreeNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree, nil
}
