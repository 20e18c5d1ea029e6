// internal/assessment/service.go
package assessment

import (
	"context"
	"io"
	"time"

	"rextra/internal/paging"

	"github.com/google/uuid"
)

// Query filters the record table. Search matches participant, email and
// institution case-insensitively.
type Query struct {
	Search string
	Status Status
	Test   string
	paging.Request
}

// Service defines the interface for assessment records and dashboard stats.
type Service interface {
	List(ctx context.Context, q Query) (*paging.Page[Record], error)
	// Delete removes all ids or, if any is unknown, none of them.
	Delete(ctx context.Context, ids ...uuid.UUID) error
	// Export writes every record matching q as CSV, ignoring paging.
	Export(ctx context.Context, w io.Writer, q Query) error
	Stats(ctx context.Context, now time.Time) (*Stats, error)
}
