// internal/membership/validation.go
package membership

import (
	"fmt"
	"sort"
	"strings"
)

// Validation messages shown next to the offending field.
const (
	MsgBasePrice = "Harga harus antara 1 - 1.000.000.000"
	MsgBaseToken = "Token harus antara 1 - 1.000.000"
	MsgDiscount  = "Diskon harus antara 0 - 80%"
	MsgBonus     = "Bonus token harus antara 0 - 200%"
	MsgReward    = "Poin harus antara 0 - 10.000.000"

	MsgMode       = "Mode harus auto atau manual"
	MsgRewardMode = "Mode reward harus default atau custom"
)

// ValidationErrors maps a field identifier such as "basePrice", "discount_3"
// or "reward_12" to a message. An empty map means the config may be saved.
type ValidationErrors map[string]string

// Error implements error so a rejected save can travel up a call chain.
func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "invalid membership config: " + strings.Join(parts, "; ")
}

// Validate checks cfg against the editable ranges. Price and token fields are
// skipped only in manual mode, custom rewards only in default reward mode. An
// unknown mode is an error of its own and does not switch any check off.
func Validate(cfg Config) ValidationErrors {
	errs := ValidationErrors{}

	switch cfg.Mode {
	case ModeAuto, ModeManual:
	default:
		errs["mode"] = MsgMode
	}
	switch cfg.RewardMode {
	case RewardDefault, RewardCustom:
	default:
		errs["rewardMode"] = MsgRewardMode
	}

	if cfg.Mode != ModeManual {
		if !within(cfg.BasePrice, MinBasePrice, MaxBasePrice) {
			errs["basePrice"] = MsgBasePrice
		}
		if !within(cfg.BaseToken, MinBaseToken, MaxBaseToken) {
			errs["baseToken"] = MsgBaseToken
		}
		for _, d := range DiscountDurations {
			if v, ok := cfg.Discounts[d]; ok && !within(v, 0, MaxDiscount) {
				errs[fmt.Sprintf("discount_%d", d)] = MsgDiscount
			}
			if v, ok := cfg.BonusTokens[d]; ok && !within(v, 0, MaxBonus) {
				errs[fmt.Sprintf("bonus_%d", d)] = MsgBonus
			}
		}
	}

	if cfg.RewardMode != RewardDefault {
		for _, d := range Durations {
			if v, ok := cfg.CustomRewards[d]; ok && !within(v, 0, MaxRewardPoint) {
				errs[fmt.Sprintf("reward_%d", d)] = MsgReward
			}
		}
	}

	return errs
}

func within(v, lo, hi int64) bool {
	return v >= lo && v <= hi
}
