// internal/membership/domain.go
package membership

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects whether term prices and tokens are derived from the base
// values or entered by hand.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// RewardMode selects how loyalty points are granted per term.
type RewardMode string

const (
	RewardDefault RewardMode = "default"
	RewardCustom  RewardMode = "custom"
)

// Durations are the standard subscription lengths in months, in display order.
var Durations = []int{1, 3, 6, 12}

// DiscountDurations are the terms that may carry a discount or token bonus.
var DiscountDurations = []int{3, 6, 12}

// Bounds for editable fields.
const (
	MinBasePrice   = 1
	MaxBasePrice   = 1_000_000_000
	MinBaseToken   = 1
	MaxBaseToken   = 1_000_000
	MaxDiscount    = 80
	MaxBonus       = 200
	MaxRewardPoint = 10_000_000
)

// ManualTerm holds the fixed values entered for one duration in manual mode.
type ManualTerm struct {
	Price int64 `json:"price" yaml:"price"`
	Token int64 `json:"token" yaml:"token"`
}

// Config is the pricing and entitlement configuration of one membership tier.
type Config struct {
	Mode          Mode               `json:"mode" yaml:"mode"`
	BasePrice     int64              `json:"basePrice" yaml:"basePrice"`
	BaseToken     int64              `json:"baseToken" yaml:"baseToken"`
	Discounts     map[int]int64      `json:"discounts" yaml:"discounts"`
	BonusTokens   map[int]int64      `json:"bonusTokens" yaml:"bonusTokens"`
	RewardMode    RewardMode         `json:"rewardMode" yaml:"rewardMode"`
	CustomRewards map[int]int64      `json:"customRewards" yaml:"customRewards"`
	ManualTerms   map[int]ManualTerm `json:"manualTerms,omitempty" yaml:"manualTerms,omitempty"`
}

// DefaultConfig is the configuration a tier starts with.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeAuto,
		BasePrice:     100_000,
		BaseToken:     50,
		Discounts:     map[int]int64{3: 10, 6: 20, 12: 30},
		BonusTokens:   map[int]int64{3: 10, 6: 20, 12: 50},
		RewardMode:    RewardDefault,
		CustomRewards: map[int]int64{1: 0, 3: 0, 6: 0, 12: 0},
	}
}

// Clone returns a deep copy so drafts never alias saved maps.
func (c Config) Clone() Config {
	out := c
	out.Discounts = cloneInts(c.Discounts)
	out.BonusTokens = cloneInts(c.BonusTokens)
	out.CustomRewards = cloneInts(c.CustomRewards)
	if c.ManualTerms != nil {
		out.ManualTerms = make(map[int]ManualTerm, len(c.ManualTerms))
		for k, v := range c.ManualTerms {
			out.ManualTerms[k] = v
		}
	}
	return out
}

func cloneInts(m map[int]int64) map[int]int64 {
	if m == nil {
		return nil
	}
	out := make(map[int]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Tier is a membership level in the catalog.
type Tier struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
}

// TierConfig is the committed configuration of a tier.
type TierConfig struct {
	TierID      uuid.UUID `json:"tier_id"`
	Config      Config    `json:"config"`
	Version     int       `json:"version"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Revision is one committed save of a tier configuration.
type Revision struct {
	TierID  uuid.UUID `json:"tier_id"`
	Version int       `json:"version"`
	Config  Config    `json:"config"`
	SavedAt time.Time `json:"saved_at"`
}

// ConfigSavedEvent is appended to the event log on every committed save.
type ConfigSavedEvent struct {
	TierID uuid.UUID `json:"tier_id"`
	Config Config    `json:"config"`
}
