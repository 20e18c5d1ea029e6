// internal/membership/rewards.go
package membership

import "math"

// DefaultRewardRate is the share of the term price granted as loyalty points
// when no custom schedule is configured.
const DefaultRewardRate = 0.01

// RewardRow is the loyalty point grant for one duration.
type RewardRow struct {
	Duration int   `json:"duration"`
	Points   int64 `json:"points"`
}

// Rewards returns the point schedule for every standard duration. Default
// rewards follow the auto preview price, or the manual term price when the
// tier is priced by hand.
func Rewards(cfg Config, rows []PreviewRow) []RewardRow {
	out := make([]RewardRow, 0, len(Durations))
	for _, d := range Durations {
		var points int64
		if cfg.RewardMode == RewardCustom {
			points = cfg.CustomRewards[d]
		} else {
			points = int64(math.Round(float64(termPrice(cfg, rows, d)) * DefaultRewardRate))
		}
		out = append(out, RewardRow{Duration: d, Points: points})
	}
	return out
}

func termPrice(cfg Config, rows []PreviewRow, d int) int64 {
	if cfg.Mode == ModeManual {
		return cfg.ManualTerms[d].Price
	}
	if r, ok := Row(rows, d); ok {
		return r.TotalPrice
	}
	return 0
}
