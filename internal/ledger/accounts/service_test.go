package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/shared"
	_ "github.com/brightbooks-hq/brightbooks/testing"
)

type mockAccountRepo struct {
	accounts map[int64]Account
	byCode   map[string]Account
	nextID   int64
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[int64]Account), byCode: make(map[string]Account), nextID: 1}
}

func (m *mockAccountRepo) Insert(ctx context.Context, account Account) (Account, error) {
	if _, exists := m.byCode[account.Code]; exists {
		return Account{}, shared.ErrDuplicateCode
	}
	account.ID = m.nextID
	m.nextID++
	m.accounts[account.ID] = account
	m.byCode[account.Code] = account
	return account, nil
}

func (m *mockAccountRepo) Get(ctx context.Context, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountRepo) GetByCode(ctx context.Context, code string) (Account, error) {
	a, ok := m.byCode[code]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountRepo) List(ctx context.Context) ([]Account, error) {
	out := make([]Account, 0, len(m.accounts))
	for id := int64(1); id < m.nextID; id++ {
		if a, ok := m.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAccountRepo) ListActive(ctx context.Context) ([]Account, error) {
	var out []Account
	all, _ := m.List(ctx)
	for _, a := range all {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockDirectory struct {
	known map[int64]bool
}

func (m *mockDirectory) GroupExists(ctx context.Context, id int64) (bool, error) {
	return m.known[id], nil
}

func validAccountInput() CreateAccountInput {
	opened := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	return CreateAccountInput{
		Code:               "1100",
		Name:               "Cash in Hand",
		GroupID:            1,
		Type:               AccountTypeAsset,
		OpeningBalance:     decimal.NewFromInt(500),
		OpeningBalanceDate: &opened,
		OpeningSide:        SideDebit,
		AllowDirectPosting: true,
		ActorID:            7,
	}
}

func TestCreateAccount(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo, &mockDirectory{known: map[int64]bool{1: true}}, nil)

	account, err := svc.Create(context.Background(), validAccountInput())
	require.NoError(t, err)
	assert.Equal(t, "1100", account.Code)
	assert.Equal(t, AccountTypeAsset, account.Type)
}

func TestCreateAccountUnknownGroup(t *testing.T) {
	svc := NewService(newMockAccountRepo(), &mockDirectory{known: map[int64]bool{}}, nil)

	_, err := svc.Create(context.Background(), validAccountInput())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateAccountDuplicateCode(t *testing.T) {
	svc := NewService(newMockAccountRepo(), &mockDirectory{known: map[int64]bool{1: true}}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, validAccountInput())
	require.NoError(t, err)

	in := validAccountInput()
	in.Name = "Another Cash"
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrIntegrity)
}

func TestCreateAccountInputValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateAccountInput)
	}{
		{"missing code", func(in *CreateAccountInput) { in.Code = " " }},
		{"missing name", func(in *CreateAccountInput) { in.Name = "" }},
		{"missing group", func(in *CreateAccountInput) { in.GroupID = 0 }},
		{"bad type", func(in *CreateAccountInput) { in.Type = "GOODWILL" }},
		{"negative opening", func(in *CreateAccountInput) { in.OpeningBalance = decimal.NewFromInt(-1) }},
		{"opening without date", func(in *CreateAccountInput) { in.OpeningBalanceDate = nil }},
		{"opening without side", func(in *CreateAccountInput) { in.OpeningSide = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validAccountInput()
			tc.mutate(&in)

			assert.ErrorIs(t, in.Validate(), shared.ErrValidation)
		})
	}
}

func TestSignedOpening(t *testing.T) {
	a := Account{OpeningBalance: decimal.NewFromInt(500), OpeningSide: SideDebit}
	assert.True(t, a.SignedOpening().Equal(decimal.NewFromInt(500)))

	a.OpeningSide = SideCredit
	assert.True(t, a.SignedOpening().Equal(decimal.NewFromInt(-500)))
}
