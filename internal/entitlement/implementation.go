// internal/entitlement/implementation.go
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"rextra/internal/paging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTierNotFound        = errors.New("tier not found")
	ErrEntitlementNotFound = errors.New("entitlement not found")
	ErrInvalidEntitlement  = errors.New("invalid entitlement")
)

// service implements the Service interface on an in-memory mapping.
type service struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]map[string]TierEntitlement
	logger *zap.Logger
}

// NewService seeds every tier with the catalog. Tiers are given in ascending
// order; later tiers get more generous grants.
func NewService(tierIDs []uuid.UUID, logger *zap.Logger) Service {
	s := &service{
		grants: make(map[uuid.UUID]map[string]TierEntitlement, len(tierIDs)),
		logger: logger,
	}
	for rank, id := range tierIDs {
		s.grants[id] = seed(id, rank)
	}
	return s
}

func seed(tierID uuid.UUID, rank int) map[string]TierEntitlement {
	out := make(map[string]TierEntitlement)
	for i, e := range Catalog() {
		te := TierEntitlement{TierID: tierID, Entitlement: e, Enabled: true}
		switch {
		case rank >= 2:
			te.Mode = ModeUnlimited
		case rank == 1 && i%2 == 0:
			te.Mode = ModeFrequency
			te.FrequencyLimit = 10 * (i + 1)
			te.FrequencyPeriod = PeriodMonthly
		default:
			te.Mode = ModeToken
			te.TokenCost = 5 * (i + 1)
			te.Enabled = rank > 0 || i < 5
		}
		out[e.Key] = te
	}
	return out
}

func (s *service) List(ctx context.Context, tierID uuid.UUID, q Query) (*paging.Page[TierEntitlement], error) {
	s.mu.RLock()
	grants, ok := s.grants[tierID]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrTierNotFound
	}
	matched := make([]TierEntitlement, 0, len(grants))
	for _, te := range grants {
		if q.matches(te) {
			matched = append(matched, te)
		}
	}
	s.mu.RUnlock()

	sortEntitlements(matched, q.Sort, q.Desc)
	page := paging.Slice(matched, q.Request)
	return &page, nil
}

func (q Query) matches(te TierEntitlement) bool {
	if q.Mode != "" && te.Mode != q.Mode {
		return false
	}
	if q.Category != "" && !strings.EqualFold(te.Entitlement.Category, q.Category) {
		return false
	}
	if q.Enabled != nil && te.Enabled != *q.Enabled {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	for _, field := range []string{te.Entitlement.Key, te.Entitlement.Name, te.Entitlement.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func sortEntitlements(items []TierEntitlement, by string, desc bool) {
	less := func(a, b TierEntitlement) bool { return a.Entitlement.Name < b.Entitlement.Name }
	switch by {
	case SortMode:
		less = func(a, b TierEntitlement) bool { return a.Mode < b.Mode }
	case SortTokenCost:
		less = func(a, b TierEntitlement) bool { return a.TokenCost < b.TokenCost }
	case SortCategory:
		less = func(a, b TierEntitlement) bool { return a.Entitlement.Category < b.Entitlement.Category }
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if desc {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return items[i].Entitlement.Key < items[j].Entitlement.Key
	})
}

// Update applies change and re-validates the grant. A rejected change leaves
// the stored grant untouched.
func (s *service) Update(ctx context.Context, tierID uuid.UUID, key string, change Change) (*TierEntitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grants, ok := s.grants[tierID]
	if !ok {
		return nil, ErrTierNotFound
	}
	te, ok := grants[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrEntitlementNotFound)
	}

	change.apply(&te)
	if err := normalize(&te); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	grants[key] = te

	s.logger.Info("entitlement updated",
		zap.String("tier_id", tierID.String()),
		zap.String("key", key),
		zap.String("mode", string(te.Mode)),
		zap.Bool("enabled", te.Enabled),
	)
	return &te, nil
}

func (c Change) apply(te *TierEntitlement) {
	if c.Enabled != nil {
		te.Enabled = *c.Enabled
	}
	if c.Mode != nil {
		te.Mode = *c.Mode
	}
	if c.TokenCost != nil {
		te.TokenCost = *c.TokenCost
	}
	if c.FrequencyLimit != nil {
		te.FrequencyLimit = *c.FrequencyLimit
	}
	if c.FrequencyPeriod != nil {
		te.FrequencyPeriod = *c.FrequencyPeriod
	}
}

// normalize checks the fields the mode needs and zeroes the ones it ignores.
func normalize(te *TierEntitlement) error {
	switch te.Mode {
	case ModeUnlimited:
		te.TokenCost, te.FrequencyLimit, te.FrequencyPeriod = 0, 0, ""
	case ModeToken:
		if te.TokenCost < 1 || te.TokenCost > MaxTokenCost {
			return fmt.Errorf("%w: token cost must be between 1 and %d", ErrInvalidEntitlement, MaxTokenCost)
		}
		te.FrequencyLimit, te.FrequencyPeriod = 0, ""
	case ModeFrequency:
		if te.FrequencyLimit < 1 || te.FrequencyLimit > MaxFrequencyLimit {
			return fmt.Errorf("%w: frequency limit must be between 1 and %d", ErrInvalidEntitlement, MaxFrequencyLimit)
		}
		switch te.FrequencyPeriod {
		case PeriodDaily, PeriodWeekly, PeriodMonthly:
		default:
			return fmt.Errorf("%w: unknown period %q", ErrInvalidEntitlement, te.FrequencyPeriod)
		}
		te.TokenCost = 0
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidEntitlement, te.Mode)
	}
	return nil
}
