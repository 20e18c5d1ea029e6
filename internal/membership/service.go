// internal/membership/service.go
package membership

import (
	"context"

	"github.com/google/uuid"
)

// PreviewResult is everything the configuration screen renders for a draft.
type PreviewResult struct {
	Rows    []PreviewRow     `json:"rows"`
	Review  ReviewResult     `json:"review"`
	Rewards []RewardRow      `json:"rewards"`
	Errors  ValidationErrors `json:"errors"`
}

// Service defines the interface for the membership configuration service.
type Service interface {
	ListTiers(ctx context.Context) ([]*Tier, error)
	GetConfig(ctx context.Context, tierID uuid.UUID) (*TierConfig, error)
	Preview(ctx context.Context, cfg Config) (*PreviewResult, error)
	// SaveConfig validates and commits cfg. A non-positive expectedVersion
	// saves over whatever is stored.
	SaveConfig(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error)
	History(ctx context.Context, tierID uuid.UUID) ([]Revision, error)
}
