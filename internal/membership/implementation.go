// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("too many saves, try again shortly")

// overwriteAttempts bounds how often an unversioned save re-reads the current
// version after losing a race.
const overwriteAttempts = 3

// Options tunes the save path.
type Options struct {
	// SaveLatency delays every commit to emulate a remote store.
	SaveLatency time.Duration
	// SavesPerMinute caps commits across all tiers. Zero disables the cap.
	SavesPerMinute int
	SaveBurst      int
	// Meter records save and review counters. Nil uses the global provider.
	Meter metric.Meter
}

// service implements the Service interface.
type service struct {
	repo    Repository
	logger  *zap.Logger
	limiter *rate.Limiter
	latency time.Duration
	tracer  trace.Tracer

	saves       metric.Int64Counter
	rejections  metric.Int64Counter
	reviewFlags metric.Int64Counter
}

// NewService creates a new membership service instance.
func NewService(repo Repository, logger *zap.Logger, opts Options) Service {
	limit := rate.Inf
	if opts.SavesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.SavesPerMinute))
	}
	burst := opts.SaveBurst
	if burst <= 0 {
		burst = 1
	}

	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter("rextra/membership")
	}
	s := &service{
		repo:    repo,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
		latency: opts.SaveLatency,
		tracer:  otel.Tracer("rextra/membership"),
	}
	s.saves = counter(meter, logger, "membership.config.saves", "Committed membership config saves")
	s.rejections = counter(meter, logger, "membership.config.rejections", "Saves blocked by validation")
	s.reviewFlags = counter(meter, logger, "membership.config.review_flags", "Previews flagged for review")
	return s
}

func counter(meter metric.Meter, logger *zap.Logger, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		logger.Warn("metric instrument unavailable", zap.String("name", name), zap.Error(err))
		return noop.Int64Counter{}
	}
	return c
}

func (s *service) ListTiers(ctx context.Context) ([]*Tier, error) {
	return s.repo.ListTiers(ctx)
}

func (s *service) GetConfig(ctx context.Context, tierID uuid.UUID) (*TierConfig, error) {
	tc, err := s.repo.GetTierConfig(ctx, tierID)
	if err != nil {
		return nil, fmt.Errorf("get config of tier %s: %w", tierID, err)
	}
	return tc, nil
}

// Preview derives the table, review flag, rewards and validation messages of
// a draft in one pass.
func (s *service) Preview(ctx context.Context, cfg Config) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "membership.preview",
		trace.WithAttributes(attribute.String("config.mode", string(cfg.Mode))),
	)
	defer span.End()

	rows := Calculate(cfg)
	res := &PreviewResult{
		Rows:    rows,
		Review:  ReviewConfig(cfg, rows),
		Rewards: Rewards(cfg, rows),
		Errors:  Validate(cfg),
	}
	if res.Review.NeedsReview {
		s.reviewFlags.Add(ctx, 1)
	}
	span.SetAttributes(
		attribute.Bool("review.needed", res.Review.NeedsReview),
		attribute.Int("validation.errors", len(res.Errors)),
	)
	return res, nil
}

func (s *service) SaveConfig(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error) {
	ctx, span := s.tracer.Start(ctx, "membership.save",
		trace.WithAttributes(
			attribute.String("tier.id", tierID.String()),
			attribute.Int("expected.version", expectedVersion),
		),
	)
	defer span.End()

	if errs := Validate(cfg); len(errs) > 0 {
		s.rejections.Add(ctx, 1)
		span.SetAttributes(attribute.Int("validation.errors", len(errs)))
		return nil, errs
	}

	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	if err := s.simulateLatency(ctx); err != nil {
		return nil, fmt.Errorf("save interrupted: %w", err)
	}

	tc, err := s.commit(ctx, tierID, cfg, expectedVersion)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("save config of tier %s: %w", tierID, err)
	}

	s.saves.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(cfg.Mode))))
	s.logger.Info("membership config saved",
		zap.String("tier_id", tierID.String()),
		zap.Int("version", tc.Version),
		zap.String("mode", string(cfg.Mode)),
		zap.String("fingerprint", tc.Fingerprint),
	)
	return tc, nil
}

// commit writes cfg on top of expectedVersion. Zero or less overwrites the
// version that is current at commit time.
func (s *service) commit(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error) {
	if expectedVersion > 0 {
		return s.repo.SaveTierConfig(ctx, tierID, cfg, expectedVersion)
	}

	var err error
	for attempt := 0; attempt < overwriteAttempts; attempt++ {
		var current *TierConfig
		current, err = s.repo.GetTierConfig(ctx, tierID)
		if err != nil {
			return nil, err
		}
		var tc *TierConfig
		tc, err = s.repo.SaveTierConfig(ctx, tierID, cfg, current.Version)
		if !errors.Is(err, ErrVersionConflict) {
			return tc, err
		}
		s.logger.Debug("overwrite lost a race, retrying",
			zap.String("tier_id", tierID.String()),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, err
}

func (s *service) History(ctx context.Context, tierID uuid.UUID) ([]Revision, error) {
	revs, err := s.repo.History(ctx, tierID)
	if err != nil {
		return nil, fmt.Errorf("history of tier %s: %w", tierID, err)
	}
	return revs, nil
}

func (s *service) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
