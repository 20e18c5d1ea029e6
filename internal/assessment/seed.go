// internal/assessment/seed.go
package assessment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	seedNames = []string{
		"Andi Pratama", "Siti Rahmawati", "Budi Santoso", "Dewi Lestari", "Rizky Hidayat",
		"Putri Maharani", "Fajar Nugroho", "Intan Permata", "Yoga Saputra", "Nadia Kusuma",
	}
	seedInstitutions = []string{"Universitas Indonesia", "ITB", "UGM", "SMA Negeri 8 Jakarta", "Telkom University"}
	seedTests        = []string{"Tes Minat Bakat", "Tes Kepribadian"}
	seedCodes        = []string{"RIA", "SEC", "IAS", "ESC", "AIS"}
)

// SampleRecords generates n deterministic records spread over the months
// before now, for demo deployments.
func SampleRecords(now time.Time, n int) []Record {
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		name := seedNames[i%len(seedNames)]
		started := now.UTC().Add(-time.Duration(i) * 61 * time.Hour)
		r := Record{
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("rextra-assessment-%d", i))),
			Participant: name,
			Email:       strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
			Institution: seedInstitutions[i%len(seedInstitutions)],
			Test:        seedTests[i%len(seedTests)],
			StartedAt:   started,
		}
		switch i % 7 {
		case 5:
			r.Status = StatusInProgress
		case 6:
			r.Status = StatusAbandoned
		default:
			done := started.Add(40 * time.Minute)
			r.Status = StatusCompleted
			r.CompletedAt = &done
			r.ResultCode = seedCodes[i%len(seedCodes)]
			r.Score = 55 + (i*13)%45
		}
		out = append(out, r)
	}
	return out
}
