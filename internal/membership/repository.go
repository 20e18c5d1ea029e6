// internal/membership/repository.go
package membership

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTierNotFound    = errors.New("tier not found")
	ErrVersionConflict = errors.New("config was changed by someone else")
)

// Repository stores tiers and their committed configurations.
type Repository interface {
	ListTiers(ctx context.Context) ([]*Tier, error)
	GetTierConfig(ctx context.Context, tierID uuid.UUID) (*TierConfig, error)
	// SaveTierConfig commits cfg as version expectedVersion+1. It fails with
	// ErrVersionConflict when the stored version differs from expectedVersion.
	SaveTierConfig(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error)
	History(ctx context.Context, tierID uuid.UUID) ([]Revision, error)
}

// DefaultTiers is the catalog a fresh deployment starts with.
func DefaultTiers() []*Tier {
	return []*Tier{
		{ID: uuid.MustParse("0b6a4c55-1f0e-4c3b-9a57-3d1f6b8f2a01"), Name: "Basic", Description: "Tes minat bakat dan laporan ringkas", Position: 1},
		{ID: uuid.MustParse("0b6a4c55-1f0e-4c3b-9a57-3d1f6b8f2a02"), Name: "Premium", Description: "Laporan lengkap dan AI Career Coach", Position: 2},
		{ID: uuid.MustParse("0b6a4c55-1f0e-4c3b-9a57-3d1f6b8f2a03"), Name: "Pro", Description: "Semua fitur dengan kuota token terbesar", Position: 3},
	}
}

// MemoryRepository keeps tiers and revisions in process memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	tiers     map[uuid.UUID]*Tier
	revisions map[uuid.UUID][]Revision
	now       func() time.Time
}

// NewMemoryRepository seeds every tier with DefaultConfig as version 1.
func NewMemoryRepository(tiers []*Tier) *MemoryRepository {
	r := &MemoryRepository{
		tiers:     make(map[uuid.UUID]*Tier, len(tiers)),
		revisions: make(map[uuid.UUID][]Revision, len(tiers)),
		now:       time.Now,
	}
	for _, t := range tiers {
		r.tiers[t.ID] = t
		r.revisions[t.ID] = []Revision{{TierID: t.ID, Version: 1, Config: DefaultConfig(), SavedAt: r.now().UTC()}}
	}
	return r
}

func (r *MemoryRepository) ListTiers(ctx context.Context) ([]*Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tier, 0, len(r.tiers))
	for _, t := range r.tiers {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *MemoryRepository) GetTierConfig(ctx context.Context, tierID uuid.UUID) (*TierConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	revs, ok := r.revisions[tierID]
	if !ok {
		return nil, ErrTierNotFound
	}
	return toTierConfig(revs[len(revs)-1]), nil
}

func (r *MemoryRepository) SaveTierConfig(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revs, ok := r.revisions[tierID]
	if !ok {
		return nil, ErrTierNotFound
	}
	current := revs[len(revs)-1].Version
	if current != expectedVersion {
		return nil, ErrVersionConflict
	}

	rev := Revision{TierID: tierID, Version: current + 1, Config: cfg.Clone(), SavedAt: r.now().UTC()}
	r.revisions[tierID] = append(revs, rev)
	return toTierConfig(rev), nil
}

func (r *MemoryRepository) History(ctx context.Context, tierID uuid.UUID) ([]Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	revs, ok := r.revisions[tierID]
	if !ok {
		return nil, ErrTierNotFound
	}
	out := make([]Revision, len(revs))
	for i, rev := range revs {
		rev.Config = rev.Config.Clone()
		out[i] = rev
	}
	return out, nil
}

func toTierConfig(rev Revision) *TierConfig {
	return &TierConfig{
		TierID:      rev.TierID,
		Config:      rev.Config.Clone(),
		Version:     rev.Version,
		Fingerprint: Fingerprint(rev.Config),
		UpdatedAt:   rev.SavedAt,
	}
}
