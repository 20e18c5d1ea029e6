// internal/membership/postgres.go
package membership

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"rextra/internal/eventstore"

	"github.com/google/uuid"
)

const streamType = "membership_config"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tiers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	position INT NOT NULL
);
CREATE TABLE IF NOT EXISTS tier_configs (
	tier_id UUID PRIMARY KEY REFERENCES tiers(id),
	config JSONB NOT NULL,
	version INT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// PostgresRepository keeps every save in the event log and the latest config
// in the tier_configs read model. Both are written in one transaction.
type PostgresRepository struct {
	db         *sql.DB
	eventStore *eventstore.Store
}

func NewPostgresRepository(db *sql.DB, es *eventstore.Store) *PostgresRepository {
	return &PostgresRepository{db: db, eventStore: es}
}

// Migrate creates the tables and seeds tiers that have no config yet.
func (r *PostgresRepository) Migrate(ctx context.Context, tiers []*Tier) error {
	if err := r.eventStore.Migrate(ctx); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create membership tables: %w", err)
	}

	for _, t := range tiers {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO tiers (id, name, description, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, t.ID, t.Name, t.Description, t.Position)
		if err != nil {
			return fmt.Errorf("seed tier %s: %w", t.Name, err)
		}

		_, err = r.SaveTierConfig(ctx, t.ID, DefaultConfig(), 0)
		if err != nil && !errors.Is(err, ErrVersionConflict) {
			return fmt.Errorf("seed config of tier %s: %w", t.Name, err)
		}
	}
	return nil
}

func (r *PostgresRepository) ListTiers(ctx context.Context) ([]*Tier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, position
		FROM tiers
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tiers: %w", err)
	}
	defer rows.Close()

	var tiers []*Tier
	for rows.Next() {
		t := &Tier{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Position); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *PostgresRepository) GetTierConfig(ctx context.Context, tierID uuid.UUID) (*TierConfig, error) {
	tc := &TierConfig{TierID: tierID}
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT config, version, updated_at
		FROM tier_configs
		WHERE tier_id = $1
	`, tierID).Scan(&raw, &tc.Version, &tc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("get config of tier %s: %w", tierID, err)
	}
	if err := json.Unmarshal(raw, &tc.Config); err != nil {
		return nil, fmt.Errorf("decode config of tier %s: %w", tierID, err)
	}
	tc.Fingerprint = Fingerprint(tc.Config)
	return tc, nil
}

func (r *PostgresRepository) SaveTierConfig(ctx context.Context, tierID uuid.UUID, cfg Config, expectedVersion int) (*TierConfig, error) {
	data, err := json.Marshal(ConfigSavedEvent{TierID: tierID, Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := r.eventStore.Append(ctx, tx, tierID, streamType, expectedVersion, eventstore.Event{
		Type: "ConfigSaved",
		Data: data,
	})
	if err != nil {
		if errors.Is(err, eventstore.ErrConcurrencyConflict) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("append event: %w", err)
	}

	tc := &TierConfig{TierID: tierID, Config: cfg.Clone(), Version: version, Fingerprint: Fingerprint(cfg)}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tier_configs (tier_id, config, version, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tier_id) DO UPDATE
		SET config = EXCLUDED.config,
		    version = EXCLUDED.version,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, tierID, raw, version).Scan(&tc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update read model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return tc, nil
}

func (r *PostgresRepository) History(ctx context.Context, tierID uuid.UUID) ([]Revision, error) {
	events, err := r.eventStore.Load(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrTierNotFound
	}

	revs := make([]Revision, 0, len(events))
	for _, ev := range events {
		var saved ConfigSavedEvent
		if err := json.Unmarshal(ev.Data, &saved); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", ev.ID, err)
		}
		revs = append(revs, Revision{TierID: tierID, Version: ev.Version, Config: saved.Config, SavedAt: ev.CreatedAt})
	}
	return revs, nil
}
