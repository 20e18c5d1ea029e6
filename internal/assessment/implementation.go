// internal/assessment/implementation.go
package assessment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"rextra/internal/paging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrRecordNotFound = errors.New("assessment record not found")

// StatsMonths is how many calendar months Stats.Monthly covers.
const StatsMonths = 6

var csvHeader = []string{
	"id", "participant", "email", "institution", "test",
	"result_code", "score", "status", "started_at", "completed_at",
}

// service implements the Service interface in memory.
type service struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	logger  *zap.Logger
}

// NewService creates a service holding records.
func NewService(records []Record, logger *zap.Logger) Service {
	s := &service{records: make(map[uuid.UUID]Record, len(records)), logger: logger}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *service) List(ctx context.Context, q Query) (*paging.Page[Record], error) {
	page := paging.Slice(s.matching(q), q.Request)
	return &page, nil
}

// matching returns the records q selects, most recently started first.
func (s *service) matching(q Query) []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if q.matches(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (q Query) matches(r Record) bool {
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Test != "" && !strings.EqualFold(r.Test, q.Test) {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(r.Participant), needle) ||
		strings.Contains(strings.ToLower(r.Email), needle) ||
		strings.Contains(strings.ToLower(r.Institution), needle)
}

func (s *service) Delete(ctx context.Context, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.records[id]; !ok {
			return fmt.Errorf("%s: %w", id, ErrRecordNotFound)
		}
	}
	for _, id := range ids {
		delete(s.records, id)
	}
	s.logger.Info("assessment records deleted", zap.Int("count", len(ids)))
	return nil
}

func (s *service) Export(ctx context.Context, w io.Writer, q Query) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range s.matching(q) {
		if err := ctx.Err(); err != nil {
			return err
		}
		completed := ""
		if r.CompletedAt != nil {
			completed = r.CompletedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			r.ID.String(), r.Participant, r.Email, r.Institution, r.Test,
			r.ResultCode, strconv.Itoa(r.Score), string(r.Status),
			r.StartedAt.UTC().Format(time.RFC3339), completed,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Stats summarizes all records. Scores and result codes only count for
// completed records; months are calendar months in UTC ending with now's.
func (s *service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(StatsMonths - 1), 0)

	monthly := make([]MonthCount, StatsMonths)
	index := make(map[string]int, StatsMonths)
	for i := range monthly {
		key := start.AddDate(0, i, 0).Format("2006-01")
		monthly[i] = MonthCount{Month: key}
		index[key] = i
	}

	st := &Stats{Distribution: []CodeCount{}, Monthly: monthly}
	codes := make(map[string]int)
	var scoreSum int

	s.mu.RLock()
	for _, r := range s.records {
		st.Total++
		if r.Status != StatusCompleted {
			continue
		}
		st.Completed++
		scoreSum += r.Score
		if r.ResultCode != "" {
			codes[r.ResultCode]++
		}
		if r.CompletedAt != nil {
			if i, ok := index[r.CompletedAt.UTC().Format("2006-01")]; ok {
				monthly[i].Completed++
			}
		}
	}
	s.mu.RUnlock()

	if st.Total > 0 {
		st.CompletionRate = round1(float64(st.Completed) * 100 / float64(st.Total))
	}
	if st.Completed > 0 {
		st.AverageScore = round1(float64(scoreSum) / float64(st.Completed))
	}
	for code, n := range codes {
		st.Distribution = append(st.Distribution, CodeCount{ResultCode: code, Count: n})
	}
	sort.Slice(st.Distribution, func(i, j int) bool {
		a, b := st.Distribution[i], st.Distribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ResultCode < b.ResultCode
	})
	return st, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
