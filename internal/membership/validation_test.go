package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidateAcceptsExample(t *testing.T) {
	assert.Empty(t, Validate(exampleConfig()))
	assert.Empty(t, Validate(DefaultConfig()))
}

func TestValidateBoundaries(t *testing.T) {
	cfg := exampleConfig()
	cfg.BasePrice = MaxBasePrice
	cfg.Discounts[12] = 80
	assert.Empty(t, Validate(cfg))

	cfg.Discounts[12] = 81
	errs := Validate(cfg)
	assert.Equal(t, ValidationErrors{"discount_12": MsgDiscount}, errs)
}

func TestValidateBaseToken(t *testing.T) {
	cfg := exampleConfig()
	cfg.BaseToken = 0
	assert.Equal(t, ValidationErrors{"baseToken": "Token harus antara 1 - 1.000.000"}, Validate(cfg))

	cfg.BaseToken = MaxBaseToken + 1
	assert.Contains(t, Validate(cfg), "baseToken")
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
		msg   string
	}{
		{"price zero", func(c *Config) { c.BasePrice = 0 }, "basePrice", MsgBasePrice},
		{"price too high", func(c *Config) { c.BasePrice = MaxBasePrice + 1 }, "basePrice", MsgBasePrice},
		{"negative discount", func(c *Config) { c.Discounts[3] = -1 }, "discount_3", MsgDiscount},
		{"bonus too high", func(c *Config) { c.BonusTokens[6] = 201 }, "bonus_6", MsgBonus},
		{"negative bonus", func(c *Config) { c.BonusTokens[12] = -5 }, "bonus_12", MsgBonus},
		{"custom reward too high", func(c *Config) {
			c.RewardMode = RewardCustom
			c.CustomRewards = map[int]int64{12: MaxRewardPoint + 1}
		}, "reward_12", MsgReward},
		{"negative custom reward", func(c *Config) {
			c.RewardMode = RewardCustom
			c.CustomRewards = map[int]int64{1: -1}
		}, "reward_1", MsgReward},
		{"missing mode", func(c *Config) { c.Mode = "" }, "mode", MsgMode},
		{"mode is case sensitive", func(c *Config) { c.Mode = "AUTO" }, "mode", MsgMode},
		{"missing reward mode", func(c *Config) { c.RewardMode = "" }, "rewardMode", MsgRewardMode},
		{"reward mode is case sensitive", func(c *Config) {
			c.RewardMode = "CUSTOM"
			c.CustomRewards = map[int]int64{1: 10}
		}, "rewardMode", MsgRewardMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := exampleConfig()
			tt.edit(&cfg)
			errs := Validate(cfg)
			assert.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}
}

func TestValidateSkipsInactiveSections(t *testing.T) {
	cfg := exampleConfig()
	cfg.Mode = ModeManual
	cfg.BasePrice = 0
	cfg.Discounts[3] = 500
	assert.Empty(t, Validate(cfg))

	cfg = exampleConfig()
	cfg.RewardMode = RewardDefault
	cfg.CustomRewards = map[int]int64{3: -10}
	assert.Empty(t, Validate(cfg))
}

func TestValidateManualWithCustomRewards(t *testing.T) {
	cfg := exampleConfig()
	cfg.Mode = ModeManual
	cfg.RewardMode = RewardCustom
	cfg.CustomRewards = map[int]int64{1: 100, 3: 300, 6: 600, 12: 1200}
	assert.Empty(t, Validate(cfg))
}

func TestValidateUnknownModesKeepRangeChecks(t *testing.T) {
	cfg := exampleConfig()
	cfg.Mode = ""
	cfg.BasePrice = 0
	cfg.BaseToken = -5
	cfg.Discounts[12] = 500
	cfg.RewardMode = "CUSTOM"
	cfg.CustomRewards = map[int]int64{1: -99}

	assert.Equal(t, ValidationErrors{
		"mode":        MsgMode,
		"rewardMode":  MsgRewardMode,
		"basePrice":   MsgBasePrice,
		"baseToken":   MsgBaseToken,
		"discount_12": MsgDiscount,
		"reward_1":    MsgReward,
	}, Validate(cfg))
}

func TestValidationErrorsMessage(t *testing.T) {
	err := ValidationErrors{"discount_3": MsgDiscount, "basePrice": MsgBasePrice}
	assert.Equal(t,
		"invalid membership config: basePrice: "+MsgBasePrice+"; discount_3: "+MsgDiscount,
		err.Error())
}

func TestValidateIsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := Config{
			Mode:          rapid.SampledFrom([]Mode{ModeAuto, ModeManual, "bogus"}).Draw(t, "mode"),
			BasePrice:     rapid.Int64().Draw(t, "basePrice"),
			BaseToken:     rapid.Int64().Draw(t, "baseToken"),
			Discounts:     rapid.MapOf(rapid.IntRange(-2, 14), rapid.Int64()).Draw(t, "discounts"),
			BonusTokens:   rapid.MapOf(rapid.IntRange(-2, 14), rapid.Int64()).Draw(t, "bonus"),
			RewardMode:    rapid.SampledFrom([]RewardMode{RewardDefault, RewardCustom, "bogus"}).Draw(t, "rewardMode"),
			CustomRewards: rapid.MapOf(rapid.IntRange(-2, 14), rapid.Int64()).Draw(t, "rewards"),
		}
		errs := Validate(cfg)
		if errs == nil {
			t.Fatalf("nil error map")
		}
		for field := range errs {
			if field == "" {
				t.Fatalf("empty field key")
			}
		}
		if cfg.Mode == "bogus" && errs["mode"] != MsgMode {
			t.Fatalf("unknown mode accepted: %v", errs)
		}
		if cfg.RewardMode == "bogus" && errs["rewardMode"] != MsgRewardMode {
			t.Fatalf("unknown reward mode accepted: %v", errs)
		}
	})
}
