package membership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, opts Options) (Service, *Tier) {
	t.Helper()
	tiers := DefaultTiers()
	repo := NewMemoryRepository(tiers)
	return NewService(repo, zap.NewNop(), opts), tiers[0]
}

func TestServiceListTiersOrdered(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	tiers, err := svc.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.Equal(t, "Basic", tiers[0].Name)
	assert.Equal(t, "Pro", tiers[2].Name)
}

func TestServiceSaveConfig(t *testing.T) {
	svc, tier := newTestService(t, Options{})
	ctx := context.Background()

	current, err := svc.GetConfig(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)

	cfg := current.Config.Clone()
	cfg.BasePrice = 150000
	saved, err := svc.SaveConfig(ctx, tier.ID, cfg, current.Version)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, int64(150000), saved.Config.BasePrice)
	assert.Equal(t, Fingerprint(cfg), saved.Fingerprint)

	revs, err := svc.History(ctx, tier.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, int64(100000), revs[0].Config.BasePrice)
	assert.Equal(t, int64(150000), revs[1].Config.BasePrice)
}

func TestServiceSaveRejectsInvalid(t *testing.T) {
	svc, tier := newTestService(t, Options{})
	cfg := DefaultConfig()
	cfg.BaseToken = 0

	_, err := svc.SaveConfig(context.Background(), tier.ID, cfg, 1)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, ValidationErrors{"baseToken": MsgBaseToken}, verrs)

	current, err := svc.GetConfig(context.Background(), tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version, "rejected save must not commit")
}

func TestServiceSaveVersionConflict(t *testing.T) {
	svc, tier := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 1)
	require.NoError(t, err)

	_, err = svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	saved, err := svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 0)
	require.NoError(t, err, "version 0 overwrites")
	assert.Equal(t, 3, saved.Version)
}

func TestServiceUnknownTier(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.GetConfig(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTierNotFound)
}

func TestServiceRateLimit(t *testing.T) {
	svc, tier := newTestService(t, Options{SavesPerMinute: 1, SaveBurst: 1})
	ctx := context.Background()

	_, err := svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 0)
	require.NoError(t, err)
	_, err = svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 0)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestServiceSaveLatencyHonoursContext(t *testing.T) {
	svc, tier := newTestService(t, Options{SaveLatency: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	current, err := svc.GetConfig(context.Background(), tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
}

func TestServicePreview(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	cfg := exampleConfig()
	cfg.Discounts[12] = 70
	cfg.BonusTokens[6] = 500

	res, err := svc.Preview(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
	assert.True(t, res.Review.NeedsReview)
	assert.Equal(t, ValidationErrors{"bonus_6": MsgBonus}, res.Errors)
	assert.Len(t, res.Rewards, 4)
}

func TestServiceConcurrentSavesSerialize(t *testing.T) {
	svc, tier := newTestService(t, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "only one writer may commit on top of version 1")
}

func TestServiceOverwriteResolvesVersionAfterLatency(t *testing.T) {
	tiers := DefaultTiers()
	repo := NewMemoryRepository(tiers)
	svc := NewService(repo, zap.NewNop(), Options{SaveLatency: 100 * time.Millisecond})
	ctx := context.Background()

	type result struct {
		tc  *TierConfig
		err error
	}
	done := make(chan result, 1)
	go func() {
		tc, err := svc.SaveConfig(ctx, tiers[0].ID, DefaultConfig(), 0)
		done <- result{tc, err}
	}()

	cfg := DefaultConfig()
	cfg.BaseToken = 90
	_, err := repo.SaveTierConfig(ctx, tiers[0].ID, cfg, 1)
	require.NoError(t, err)

	res := <-done
	require.NoError(t, res.err, "an overwrite must not fail on a commit made during the latency")
	assert.Equal(t, 3, res.tc.Version)
	assert.Equal(t, DefaultConfig().BaseToken, res.tc.Config.BaseToken)
}

// racingRepository commits a competing save right before the first save it
// is asked for.
type racingRepository struct {
	*MemoryRepository
	raced bool
}

func (r *racingRepository) SaveTierConfig(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error) {
	if !r.raced {
		r.raced = true
		other := cfg.Clone()
		other.BasePrice++
		if _, err := r.MemoryRepository.SaveTierConfig(ctx, tierID, other, expectedVersion); err != nil {
			return nil, err
		}
	}
	return r.MemoryRepository.SaveTierConfig(ctx, tierID, cfg, expectedVersion)
}

func TestServiceOverwriteRetriesLostRace(t *testing.T) {
	tiers := DefaultTiers()
	repo := &racingRepository{MemoryRepository: NewMemoryRepository(tiers)}
	svc := NewService(repo, zap.NewNop(), Options{})
	ctx := context.Background()

	saved, err := svc.SaveConfig(ctx, tiers[0].ID, DefaultConfig(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Version)

	repo.raced = false
	_, err = svc.SaveConfig(ctx, tiers[0].ID, DefaultConfig(), saved.Version)
	assert.ErrorIs(t, err, ErrVersionConflict, "explicit versions are never retried")
}

func counterValue(t *testing.T, reader sdkmetric.Reader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestServiceRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	svc, tier := newTestService(t, Options{Meter: mp.Meter("rextra/membership")})
	ctx := context.Background()

	invalid := DefaultConfig()
	invalid.BaseToken = 0
	_, err := svc.SaveConfig(ctx, tier.ID, invalid, 1)
	require.Error(t, err)
	assert.Equal(t, int64(1), counterValue(t, reader, "membership.config.rejections"))
	assert.Zero(t, counterValue(t, reader, "membership.config.saves"))

	flagged := exampleConfig()
	flagged.Discounts[12] = 70
	res, err := svc.Preview(ctx, flagged)
	require.NoError(t, err)
	require.True(t, res.Review.NeedsReview)
	assert.Equal(t, int64(1), counterValue(t, reader, "membership.config.review_flags"))

	_, err = svc.Preview(ctx, exampleConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counterValue(t, reader, "membership.config.review_flags"), "clean previews are not counted")

	_, err = svc.SaveConfig(ctx, tier.ID, DefaultConfig(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counterValue(t, reader, "membership.config.saves"))
}
