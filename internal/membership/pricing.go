// internal/membership/pricing.go
package membership

import "math"

// PreviewRow is the derived price and token allotment for one duration.
type PreviewRow struct {
	Duration      int     `json:"duration"`
	TotalPrice    int64   `json:"totalPrice"`
	PricePerMonth int64   `json:"pricePerMonth"`
	TotalToken    int64   `json:"totalToken"`
	TokenPerMonth float64 `json:"tokenPerMonth"`
}

// Calculate derives the preview table for an auto-mode config. Manual configs
// have no derived preview and yield nil. Out-of-range values are computed
// as-is; callers validate first.
//
// Totals and price per month round to the nearest integer, token per month to
// one decimal place. Rounding is half away from zero.
func Calculate(cfg Config) []PreviewRow {
	if cfg.Mode != ModeAuto {
		return nil
	}

	rows := make([]PreviewRow, 0, len(Durations))
	for _, d := range Durations {
		discount := termPercent(cfg.Discounts, d)
		bonus := termPercent(cfg.BonusTokens, d)
		months := float64(d)

		totalPrice := math.Round(float64(cfg.BasePrice) * months * (1 - float64(discount)/100))
		totalToken := math.Round(float64(cfg.BaseToken) * months * (1 + float64(bonus)/100))

		rows = append(rows, PreviewRow{
			Duration:      d,
			TotalPrice:    int64(totalPrice),
			PricePerMonth: int64(math.Round(totalPrice / months)),
			TotalToken:    int64(totalToken),
			TokenPerMonth: math.Round(totalToken/months*10) / 10,
		})
	}
	return rows
}

// termPercent returns the percentage configured for d. The 1-month term never
// carries a discount or bonus.
func termPercent(m map[int]int64, d int) int64 {
	if d == 1 {
		return 0
	}
	return m[d]
}

// Row returns the preview row for duration d.
func Row(rows []PreviewRow, d int) (PreviewRow, bool) {
	for _, r := range rows {
		if r.Duration == d {
			return r, true
		}
	}
	return PreviewRow{}, false
}
