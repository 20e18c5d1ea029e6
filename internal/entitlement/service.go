// internal/entitlement/service.go
package entitlement

import (
	"context"

	"rextra/internal/paging"

	"github.com/google/uuid"
)

// Sort keys accepted by Query.
const (
	SortName      = "name"
	SortMode      = "mode"
	SortTokenCost = "token_cost"
	SortCategory  = "category"
)

// Query filters and orders the entitlements of a tier.
type Query struct {
	Search   string
	Mode     Mode
	Category string
	Enabled  *bool
	Sort     string
	Desc     bool
	paging.Request
}

// Service defines the interface for the entitlement mapping service.
type Service interface {
	List(ctx context.Context, tierID uuid.UUID, q Query) (*paging.Page[TierEntitlement], error)
	Update(ctx context.Context, tierID uuid.UUID, key string, change Change) (*TierEntitlement, error)
}
