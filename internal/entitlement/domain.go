// internal/entitlement/domain.go
package entitlement

import "github.com/google/uuid"

// Mode is how a feature is charged for a tier.
type Mode string

const (
	ModeUnlimited Mode = "unlimited"
	ModeToken     Mode = "token"
	ModeFrequency Mode = "frequency"
)

// Period is the window a frequency limit applies to.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

const (
	MaxTokenCost      = 10000
	MaxFrequencyLimit = 10000
)

// Entitlement is a feature members can be granted.
type Entitlement struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// TierEntitlement is the grant of one feature to one tier.
type TierEntitlement struct {
	TierID          uuid.UUID   `json:"tier_id"`
	Entitlement     Entitlement `json:"entitlement"`
	Enabled         bool        `json:"enabled"`
	Mode            Mode        `json:"mode"`
	TokenCost       int         `json:"token_cost"`
	FrequencyLimit  int         `json:"frequency_limit"`
	FrequencyPeriod Period      `json:"frequency_period,omitempty"`
}

// Change is a partial update of a TierEntitlement. Nil fields keep their value.
type Change struct {
	Enabled         *bool   `json:"enabled,omitempty"`
	Mode            *Mode   `json:"mode,omitempty"`
	TokenCost       *int    `json:"token_cost,omitempty"`
	FrequencyLimit  *int    `json:"frequency_limit,omitempty"`
	FrequencyPeriod *Period `json:"frequency_period,omitempty"`
}

// Catalog is the feature list of a fresh deployment.
func Catalog() []Entitlement {
	return []Entitlement{
		{Key: "interest_test", Name: "Tes Minat Bakat", Category: "asesmen", Description: "Tes RIASEC dengan laporan hasil"},
		{Key: "personality_test", Name: "Tes Kepribadian", Category: "asesmen", Description: "Profil kepribadian kerja"},
		{Key: "full_report", Name: "Laporan Lengkap", Category: "asesmen", Description: "Unduh laporan PDF lengkap"},
		{Key: "career_coach", Name: "AI Career Coach", Category: "karir", Description: "Tanya jawab karir dengan AI"},
		{Key: "cv_review", Name: "Review CV", Category: "karir", Description: "Masukan otomatis untuk CV"},
		{Key: "mock_interview", Name: "Simulasi Wawancara", Category: "karir", Description: "Latihan wawancara dengan umpan balik"},
		{Key: "job_matching", Name: "Rekomendasi Lowongan", Category: "karir", Description: "Lowongan yang cocok dengan profil"},
		{Key: "learning_path", Name: "Jalur Belajar", Category: "belajar", Description: "Rekomendasi kursus dan materi"},
	}
}
