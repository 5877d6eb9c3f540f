package groups

import (
	"time"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
)

// AccountGroup models a node in the chart-of-accounts hierarchy.
type AccountGroup struct {
	ID        int64
	Name      string
	Code      string
	Type      accounts.AccountType
	ParentID  *int64
	Sequence  int
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TreeNode is an account group with its nested children and leaf accounts.
type TreeNode struct {
	AccountGroup
	Children []TreeNode         `json:"children"`
	Accounts []accounts.Account `json:"accounts"`
}
