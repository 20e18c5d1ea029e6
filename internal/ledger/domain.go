// internal/ledger/domain.go
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind tells whether an entry adds tokens to or takes them from a balance.
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

// Entry is one immutable token movement.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Kind         Kind      `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Reason       string    `json:"reason"`
	Feature      string    `json:"feature,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary totals the entries matching a query.
type Summary struct {
	Entries  int   `json:"entries"`
	Credited int64 `json:"credited"`
	Debited  int64 `json:"debited"`
	Net      int64 `json:"net"`
}
