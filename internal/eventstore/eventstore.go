// internal/eventstore/eventstore.go
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrEmptyAppend         = errors.New("no events to append")
)

// Schema creates the event log table. Versions are unique per stream so two
// writers racing past the version check still cannot both commit.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	stream_id UUID NOT NULL,
	stream_type TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_data JSONB NOT NULL,
	metadata JSONB,
	version INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (stream_id, version)
);`

// Event is one entry of a stream.
type Event struct {
	ID         int64             `json:"id"`
	StreamID   uuid.UUID         `json:"stream_id"`
	StreamType string            `json:"stream_type"`
	Type       string            `json:"type"`
	Data       json.RawMessage   `json:"data"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Version    int               `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Store appends to and reads from the postgres event log.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
}

func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("rextra/eventstore"),
	}
}

// Migrate creates the events table if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// Append writes events after expectedVersion inside tx. The caller owns the
// transaction so read-model updates commit together with the events.
func (s *Store) Append(ctx context.Context, tx *sql.Tx, streamID uuid.UUID, streamType string, expectedVersion int, events ...Event) (int, error) {
	ctx, span := s.tracer.Start(ctx, "eventstore.append",
		trace.WithAttributes(
			attribute.String("stream.id", streamID.String()),
			attribute.String("stream.type", streamType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if len(events) == 0 {
		return expectedVersion, ErrEmptyAppend
	}

	var current int
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM events
		WHERE stream_id = $1
	`, streamID).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("query current version: %w", err)
	}
	if current != expectedVersion {
		span.SetAttributes(attribute.Int("actual.version", current))
		return current, ErrConcurrencyConflict
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (stream_id, stream_type, event_type, event_data, metadata, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	version := expectedVersion
	for _, ev := range events {
		version++
		meta, err := json.Marshal(ev.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}
		_, err = stmt.ExecContext(ctx, streamID, streamType, ev.Type, []byte(ev.Data), meta, version, time.Now().UTC())
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return 0, ErrConcurrencyConflict
			}
			return 0, fmt.Errorf("insert event v%d: %w", version, err)
		}
	}

	span.SetAttributes(attribute.Int("new.version", version))
	return version, nil
}

// Load returns every event of a stream in version order.
func (s *Store) Load(ctx context.Context, streamID uuid.UUID) ([]Event, error) {
	ctx, span := s.tracer.Start(ctx, "eventstore.load",
		trace.WithAttributes(attribute.String("stream.id", streamID.String())),
	)
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stream_id, stream_type, event_type, event_data, metadata, version, created_at
		FROM events
		WHERE stream_id = $1
		ORDER BY version ASC
	`, streamID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var data, meta []byte
		if err := rows.Scan(&ev.ID, &ev.StreamID, &ev.StreamType, &ev.Type, &data, &meta, &ev.Version, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Data = json.RawMessage(data)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of event %d: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}
