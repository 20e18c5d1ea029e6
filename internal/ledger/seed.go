// internal/ledger/seed.go
package ledger

import "context"

// Seed records a small demo history so a fresh dashboard has data to page through.
func Seed(ctx context.Context, svc Service) error {
	users := []struct{ id, name string }{
		{"usr-001", "Andi Pratama"},
		{"usr-002", "Siti Rahmawati"},
		{"usr-003", "Budi Santoso"},
	}
	for i, u := range users {
		moves := []struct {
			kind    Kind
			amount  int64
			reason  string
			feature string
		}{
			{KindCredit, 600, "Pembelian membership 12 bulan", ""},
			{KindDebit, 15, "Pemakaian fitur", "career_coach"},
			{KindDebit, int64(10 * (i + 1)), "Pemakaian fitur", "cv_review"},
			{KindCredit, 50, "Bonus token", ""},
			{KindDebit, 25, "Pemakaian fitur", "mock_interview"},
		}
		for _, m := range moves {
			if _, err := svc.Record(ctx, u.id, u.name, m.kind, m.amount, m.reason, m.feature); err != nil {
				return err
			}
		}
	}
	return nil
}
