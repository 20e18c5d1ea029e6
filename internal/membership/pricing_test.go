package membership

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func exampleConfig() Config {
	return Config{
		Mode:          ModeAuto,
		BasePrice:     100000,
		BaseToken:     50,
		Discounts:     map[int]int64{3: 10, 6: 20, 12: 30},
		BonusTokens:   map[int]int64{3: 10, 6: 20, 12: 50},
		RewardMode:    RewardDefault,
		CustomRewards: map[int]int64{},
	}
}

func TestCalculateExample(t *testing.T) {
	rows := Calculate(exampleConfig())
	require.Len(t, rows, 4)

	want := []PreviewRow{
		{Duration: 1, TotalPrice: 100000, PricePerMonth: 100000, TotalToken: 50, TokenPerMonth: 50.0},
		{Duration: 3, TotalPrice: 270000, PricePerMonth: 90000, TotalToken: 165, TokenPerMonth: 55.0},
		{Duration: 6, TotalPrice: 480000, PricePerMonth: 80000, TotalToken: 360, TokenPerMonth: 60.0},
		{Duration: 12, TotalPrice: 840000, PricePerMonth: 70000, TotalToken: 900, TokenPerMonth: 75.0},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("preview mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateIgnoresOneMonthDiscount(t *testing.T) {
	cfg := exampleConfig()
	cfg.Discounts[1] = 50
	cfg.BonusTokens[1] = 100

	row, ok := Row(Calculate(cfg), 1)
	require.True(t, ok)
	assert.Equal(t, int64(100000), row.TotalPrice)
	assert.Equal(t, int64(100000), row.PricePerMonth)
	assert.Equal(t, int64(50), row.TotalToken)
	assert.Equal(t, 50.0, row.TokenPerMonth)
}

func TestCalculateTokenPerMonthKeepsOneDecimal(t *testing.T) {
	cfg := exampleConfig()
	cfg.BaseToken = 7
	cfg.BonusTokens = map[int]int64{3: 15}

	row, ok := Row(Calculate(cfg), 3)
	require.True(t, ok)
	// 7 * 3 * 1.15 = 24.15 -> 24 tokens, 24 / 3 = 8.0
	assert.Equal(t, int64(24), row.TotalToken)
	assert.Equal(t, 8.0, row.TokenPerMonth)

	cfg.BonusTokens = map[int]int64{6: 0}
	row, _ = Row(Calculate(cfg), 12)
	// 7 * 12 = 84, 84 / 12 = 7.0
	assert.Equal(t, 7.0, row.TokenPerMonth)

	cfg.BaseToken = 10
	cfg.BonusTokens = map[int]int64{3: 3}
	row, _ = Row(Calculate(cfg), 3)
	// 10 * 3 * 1.03 = 30.9 -> 31 tokens, 31 / 3 = 10.33 -> 10.3
	assert.Equal(t, int64(31), row.TotalToken)
	assert.Equal(t, 10.3, row.TokenPerMonth)
}

func TestCalculateManualHasNoPreview(t *testing.T) {
	cfg := exampleConfig()
	cfg.Mode = ModeManual
	assert.Nil(t, Calculate(cfg))
}

func TestCalculateMissingEntriesCountAsZero(t *testing.T) {
	cfg := exampleConfig()
	cfg.Discounts = nil
	cfg.BonusTokens = nil

	for _, row := range Calculate(cfg) {
		assert.Equal(t, cfg.BasePrice*int64(row.Duration), row.TotalPrice)
		assert.Equal(t, cfg.BaseToken*int64(row.Duration), row.TotalToken)
	}
}

func validConfig() *rapid.Generator[Config] {
	return rapid.Custom(func(t *rapid.T) Config {
		cfg := Config{
			Mode:        ModeAuto,
			BasePrice:   rapid.Int64Range(MinBasePrice, MaxBasePrice).Draw(t, "basePrice"),
			BaseToken:   rapid.Int64Range(MinBaseToken, MaxBaseToken).Draw(t, "baseToken"),
			Discounts:   map[int]int64{},
			BonusTokens: map[int]int64{},
			RewardMode:  RewardDefault,
		}
		for _, d := range Durations {
			cfg.Discounts[d] = rapid.Int64Range(0, MaxDiscount).Draw(t, "discount")
			cfg.BonusTokens[d] = rapid.Int64Range(0, MaxBonus).Draw(t, "bonus")
		}
		return cfg
	})
}

func TestCalculateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig().Draw(t, "cfg")
		rows := Calculate(cfg)
		if len(rows) != len(Durations) {
			t.Fatalf("got %d rows", len(rows))
		}

		for i, row := range rows {
			d := Durations[i]
			if row.Duration != d {
				t.Fatalf("row %d has duration %d, want %d", i, row.Duration, d)
			}

			discount, bonus := cfg.Discounts[d], cfg.BonusTokens[d]
			if d == 1 {
				discount, bonus = 0, 0
			}
			wantPrice := int64(math.Round(float64(cfg.BasePrice) * float64(d) * (1 - float64(discount)/100)))
			wantToken := int64(math.Round(float64(cfg.BaseToken) * float64(d) * (1 + float64(bonus)/100)))
			if row.TotalPrice != wantPrice {
				t.Fatalf("d=%d totalPrice=%d want %d", d, row.TotalPrice, wantPrice)
			}
			if row.TotalToken != wantToken {
				t.Fatalf("d=%d totalToken=%d want %d", d, row.TotalToken, wantToken)
			}
			if d == 1 && (row.TotalPrice != cfg.BasePrice || row.TotalToken != cfg.BaseToken) {
				t.Fatalf("1-month term altered: %+v", row)
			}
		}
	})
}

func TestCalculateIsPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := validConfig().Draw(t, "cfg")
		before := Fingerprint(cfg)
		first := Calculate(cfg)
		second := Calculate(cfg)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("second run differs:\n%s", diff)
		}
		if Fingerprint(cfg) != before {
			t.Fatalf("config mutated")
		}
	})
}
