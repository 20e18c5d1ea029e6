// internal/membership/review.go
package membership

// Review thresholds for the 12-month offer.
const (
	ReviewPriceDropPercent  = 60
	ReviewTokenBoostPercent = 200
)

// ReviewResult tells an admin whether the yearly offer looks too generous.
// It never blocks a save.
type ReviewResult struct {
	PriceDropPercent  float64 `json:"priceDropPercent"`
	TokenBoostPercent float64 `json:"tokenBoostPercent"`
	NeedsReview       bool    `json:"needsReview"`
}

// Review compares the 12-month row against the 1-month base values.
func Review(row12 PreviewRow, basePrice, baseToken int64) ReviewResult {
	var res ReviewResult
	if basePrice > 0 {
		res.PriceDropPercent = float64(basePrice-row12.PricePerMonth) / float64(basePrice) * 100
	}
	if baseToken > 0 {
		res.TokenBoostPercent = (row12.TokenPerMonth - float64(baseToken)) / float64(baseToken) * 100
	}
	res.NeedsReview = res.PriceDropPercent > ReviewPriceDropPercent ||
		res.TokenBoostPercent > ReviewTokenBoostPercent
	return res
}

// ReviewConfig runs Review on the 12-month row of an auto-mode preview.
func ReviewConfig(cfg Config, rows []PreviewRow) ReviewResult {
	row12, ok := Row(rows, 12)
	if !ok {
		return ReviewResult{}
	}
	return Review(row12, cfg.BasePrice, cfg.BaseToken)
}
