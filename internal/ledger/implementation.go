// internal/ledger/implementation.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"rextra/internal/paging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidKind         = errors.New("unknown entry kind")
	ErrInsufficientBalance = errors.New("insufficient token balance")
)

// service implements the Service interface in memory.
type service struct {
	mu       sync.RWMutex
	entries  []Entry
	balances map[string]int64
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates an empty ledger.
func NewService(logger *zap.Logger) Service {
	return newService(logger, time.Now)
}

func newService(logger *zap.Logger, now func() time.Time) *service {
	return &service{balances: make(map[string]int64), now: now, logger: logger}
}

func (s *service) Record(ctx context.Context, userID, userName string, kind Kind, amount int64, reason, feature string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balances[userID]
	switch kind {
	case KindCredit:
		balance += amount
	case KindDebit:
		if amount > balance {
			return nil, fmt.Errorf("debit %d from %s with balance %d: %w", amount, userID, balance, ErrInsufficientBalance)
		}
		balance -= amount
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	e := Entry{
		ID:           uuid.New(),
		UserID:       userID,
		UserName:     userName,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balance,
		Reason:       reason,
		Feature:      feature,
		CreatedAt:    s.now().UTC(),
	}
	s.entries = append(s.entries, e)
	s.balances[userID] = balance

	s.logger.Debug("ledger entry recorded",
		zap.String("user_id", userID),
		zap.String("kind", string(kind)),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance),
	)
	return &e, nil
}

// List returns matching entries, newest first.
func (s *service) List(ctx context.Context, q Query) (*paging.Page[Entry], error) {
	matched := s.filter(q)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	page := paging.Slice(matched, q.Request)
	return &page, nil
}

func (s *service) Summary(ctx context.Context, q Query) (*Summary, error) {
	var sum Summary
	for _, e := range s.filter(q) {
		sum.Entries++
		if e.Kind == KindCredit {
			sum.Credited += e.Amount
		} else {
			sum.Debited += e.Amount
		}
	}
	sum.Net = sum.Credited - sum.Debited
	return &sum, nil
}

// filter returns the matching entries, most recently recorded first.
func (s *service) filter(q Query) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if q.UserID != "" && e.UserID != q.UserID {
			continue
		}
		if q.Kind != "" && e.Kind != q.Kind {
			continue
		}
		if !q.From.IsZero() && e.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !e.CreatedAt.Before(q.To) {
			continue
		}
		out = append(out, e)
	}
	return out
}
