// internal/ledger/service.go
package ledger

import (
	"context"
	"time"

	"rextra/internal/paging"
)

// Query selects entries. Zero values match everything; From is inclusive and
// To exclusive.
type Query struct {
	UserID string
	Kind   Kind
	From   time.Time
	To     time.Time
	paging.Request
}

// Service defines the interface for the token ledger.
type Service interface {
	// Record appends a movement and returns it with its id and resulting balance.
	Record(ctx context.Context, userID, userName string, kind Kind, amount int64, reason, feature string) (*Entry, error)
	List(ctx context.Context, q Query) (*paging.Page[Entry], error)
	Summary(ctx context.Context, q Query) (*Summary, error)
}
