// internal/assessment/domain.go
package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the progress of one assessment attempt.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusAbandoned  Status = "abandoned"
)

// Record is one participant's attempt at a test.
type Record struct {
	ID          uuid.UUID  `json:"id"`
	Participant string     `json:"participant"`
	Email       string     `json:"email"`
	Institution string     `json:"institution"`
	Test        string     `json:"test"`
	ResultCode  string     `json:"result_code,omitempty"`
	Score       int        `json:"score"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CodeCount is how many completed records share a result code.
type CodeCount struct {
	ResultCode string `json:"result_code"`
	Count      int    `json:"count"`
}

// MonthCount is the number of completions in a calendar month (YYYY-MM).
type MonthCount struct {
	Month     string `json:"month"`
	Completed int    `json:"completed"`
}

// Stats feeds the dashboard cards and charts.
type Stats struct {
	Total          int          `json:"total"`
	Completed      int          `json:"completed"`
	CompletionRate float64      `json:"completion_rate"`
	AverageScore   float64      `json:"average_score"`
	Distribution   []CodeCount  `json:"distribution"`
	Monthly        []MonthCount `json:"monthly"`
}
