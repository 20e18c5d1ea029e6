package membership

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"rextra/internal/eventstore"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to the postgres described by the PG* variables and
// skips the test when none is reachable.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	env := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("PGHOST", "localhost"), env("PGPORT", "5432"), env("PGUSER", "user"),
		env("PGPASSWORD", "password"), env("PGDATABASE", "testdb"))

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping postgres tests: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	repo := NewPostgresRepository(db, eventstore.New(db))
	tier := &Tier{ID: uuid.New(), Name: "Test " + uuid.NewString()[:8], Position: 99}
	require.NoError(t, repo.Migrate(ctx, []*Tier{tier}))
	require.NoError(t, repo.Migrate(ctx, []*Tier{tier}), "migrate is idempotent")

	tc, err := repo.GetTierConfig(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tc.Version)
	assert.Equal(t, Fingerprint(DefaultConfig()), tc.Fingerprint)

	cfg := DefaultConfig()
	cfg.BasePrice = 250000
	saved, err := repo.SaveTierConfig(ctx, tier.ID, cfg, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	_, err = repo.SaveTierConfig(ctx, tier.ID, cfg, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	revs, err := repo.History(ctx, tier.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, int64(250000), revs[1].Config.BasePrice)

	_, err = repo.GetTierConfig(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrTierNotFound)
}
