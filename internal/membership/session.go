// internal/membership/session.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("edit session not found")
	ErrDiscardRequired = errors.New("unsaved changes must be discarded first")
	ErrSessionClosed   = errors.New("edit session is closed")
)

// SessionState is where an edit session is in its save cycle.
type SessionState string

const (
	StateViewing           SessionState = "viewing"
	StateEditing           SessionState = "editing"
	StateValidating        SessionState = "validating"
	StateCommitted         SessionState = "committed"
	StateEditingWithErrors SessionState = "editing_with_errors"
)

// Patch changes a subset of a draft. Nil fields are left alone; map entries
// are merged into the draft maps.
type Patch struct {
	BasePrice     *int64             `json:"basePrice,omitempty"`
	BaseToken     *int64             `json:"baseToken,omitempty"`
	Discounts     map[int]int64      `json:"discounts,omitempty"`
	BonusTokens   map[int]int64      `json:"bonusTokens,omitempty"`
	RewardMode    *RewardMode        `json:"rewardMode,omitempty"`
	CustomRewards map[int]int64      `json:"customRewards,omitempty"`
	ManualTerms   map[int]ManualTerm `json:"manualTerms,omitempty"`
}

func (p Patch) apply(cfg *Config) {
	if p.BasePrice != nil {
		cfg.BasePrice = *p.BasePrice
	}
	if p.BaseToken != nil {
		cfg.BaseToken = *p.BaseToken
	}
	if p.RewardMode != nil {
		cfg.RewardMode = *p.RewardMode
	}
	cfg.Discounts = merge(cfg.Discounts, p.Discounts)
	cfg.BonusTokens = merge(cfg.BonusTokens, p.BonusTokens)
	cfg.CustomRewards = merge(cfg.CustomRewards, p.CustomRewards)
	if len(p.ManualTerms) > 0 {
		if cfg.ManualTerms == nil {
			cfg.ManualTerms = make(map[int]ManualTerm, len(p.ManualTerms))
		}
		for d, t := range p.ManualTerms {
			cfg.ManualTerms[d] = t
		}
	}
}

func merge(dst, src map[int]int64) map[int]int64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[int]int64, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID         uuid.UUID        `json:"id"`
	TierID     uuid.UUID        `json:"tier_id"`
	State      SessionState     `json:"state"`
	Dirty      bool             `json:"dirty"`
	Draft      Config           `json:"draft"`
	Saved      TierConfig       `json:"saved"`
	Preview    *PreviewResult   `json:"preview"`
	Errors     ValidationErrors `json:"errors,omitempty"`
	OpenedAt   time.Time        `json:"opened_at"`
	LastChange time.Time        `json:"last_change"`
}

// Session is one admin editing one tier. Its methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	id         uuid.UUID
	svc        Service
	state      SessionState
	saved      TierConfig
	draft      Config
	errs       ValidationErrors
	openedAt   time.Time
	lastChange time.Time
	closed     bool
	now        func() time.Time
}

func newSession(svc Service, saved *TierConfig, clock func() time.Time) *Session {
	now := clock().UTC()
	return &Session{
		id:         uuid.New(),
		svc:        svc,
		now:        clock,
		state:      StateViewing,
		saved:      *saved,
		draft:      saved.Config.Clone(),
		openedAt:   now,
		lastChange: now,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Dirty reports whether the draft differs from the last saved config.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty()
}

func (s *Session) dirty() bool {
	return Fingerprint(s.draft) != s.saved.Fingerprint
}

// edited reports changes other than the pricing mode itself.
func (s *Session) edited() bool {
	d := s.draft
	d.Mode = s.saved.Config.Mode
	return Fingerprint(d) != s.saved.Fingerprint
}

// Apply edits the draft.
func (s *Session) Apply(p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	p.apply(&s.draft)
	s.state = StateEditing
	s.lastChange = s.now().UTC()
	return nil
}

// SwitchMode changes between auto and manual pricing. With unsaved changes the
// caller must confirm, and the draft is reset to the saved config first.
func (s *Session) SwitchMode(mode Mode, confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if mode != ModeAuto && mode != ModeManual {
		return fmt.Errorf("unknown mode %q", mode)
	}

	if s.edited() {
		if !confirm {
			return ErrDiscardRequired
		}
		s.draft = s.saved.Config.Clone()
		s.errs = nil
	}
	s.draft.Mode = mode
	s.state = StateEditing
	s.lastChange = s.now().UTC()
	return nil
}

// Save validates the draft and commits it. Validation failures come back as
// ValidationErrors and leave the session in StateEditingWithErrors.
func (s *Session) Save(ctx context.Context) (*TierConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	s.state = StateValidating
	if errs := Validate(s.draft); len(errs) > 0 {
		s.errs = errs
		s.state = StateEditingWithErrors
		return nil, errs
	}

	tc, err := s.svc.SaveConfig(ctx, s.saved.TierID, s.draft, s.saved.Version)
	if err != nil {
		s.state = StateEditing
		return nil, err
	}

	s.saved = *tc
	s.draft = tc.Config.Clone()
	s.errs = nil
	s.state = StateCommitted
	return tc, nil
}

// Discard drops the draft and returns to the saved config.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = s.saved.Config.Clone()
	s.errs = nil
	s.state = StateViewing
	s.lastChange = s.now().UTC()
}

func (s *Session) close(confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty() && !confirm {
		return ErrDiscardRequired
	}
	s.closed = true
	return nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChange
}

func (s *Session) expire() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Snapshot returns the session state with a fresh preview of the draft.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview, err := s.svc.Preview(ctx, s.draft)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:         s.id,
		TierID:     s.saved.TierID,
		State:      s.state,
		Dirty:      s.dirty(),
		Draft:      s.draft.Clone(),
		Saved:      s.saved,
		Preview:    preview,
		Errors:     s.errs,
		OpenedAt:   s.openedAt,
		LastChange: s.lastChange,
	}, nil
}

// DefaultSessionIdleTTL is how long a session may go without edits before the
// manager drops it.
const DefaultSessionIdleTTL = 30 * time.Minute

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithIdleTTL sets the idle limit. Zero or less keeps sessions until closed.
func WithIdleTTL(d time.Duration) SessionOption {
	return func(m *SessionManager) { m.idleTTL = d }
}

// SessionManager tracks open edit sessions. Sessions idle for longer than the
// TTL are dropped on the next Open or Get.
type SessionManager struct {
	svc      Service
	idleTTL  time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionManager(svc Service, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		svc:      svc,
		idleTTL:  DefaultSessionIdleTTL,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session on the saved config of tierID.
func (m *SessionManager) Open(ctx context.Context, tierID uuid.UUID) (*Session, error) {
	m.Sweep(m.now())

	tc, err := m.svc.GetConfig(ctx, tierID)
	if err != nil {
		return nil, err
	}
	s := newSession(m.svc, tc, m.now)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.expired(s, m.now()) {
		m.evict(id, s)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends a session. Leaving with unsaved changes needs confirm.
func (m *SessionManager) Close(id uuid.UUID, confirm bool) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.close(confirm); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many sessions are open.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops every session whose last edit is older than the idle TTL as of
// now, unsaved drafts included, and returns how many it dropped.
func (m *SessionManager) Sweep(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.RLock()
	var stale []*Session
	for _, s := range m.sessions {
		if m.expired(s, now) {
			stale = append(stale, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range stale {
		m.evict(s.id, s)
	}
	return len(stale)
}

func (m *SessionManager) expired(s *Session, now time.Time) bool {
	if m.idleTTL <= 0 {
		return false
	}
	return now.Sub(s.idleSince()) > m.idleTTL
}

func (m *SessionManager) evict(id uuid.UUID, s *Session) {
	s.expire()
	m.mu.Lock()
	if m.sessions[id] == s {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
}
