// internal/membership/fingerprint.go
package membership

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint is a stable digest of cfg. encoding/json sorts map keys, and
// nil maps are hashed as empty ones, so equal configs always hash the same.
func Fingerprint(cfg Config) string {
	c := cfg.Clone()
	if c.Discounts == nil {
		c.Discounts = map[int]int64{}
	}
	if c.BonusTokens == nil {
		c.BonusTokens = map[int]int64{}
	}
	if c.CustomRewards == nil {
		c.CustomRewards = map[int]int64{}
	}
	if len(c.ManualTerms) == 0 {
		c.ManualTerms = nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		// Config holds only plain values; Marshal cannot fail on it.
		panic(err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
