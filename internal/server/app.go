// internal/server/app.go
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rextra/internal/assessment"
	"rextra/internal/config"
	"rextra/internal/entitlement"
	"rextra/internal/eventstore"
	"rextra/internal/ledger"
	"rextra/internal/membership"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// demoRecords is how many sample assessment records a seeded deployment gets.
const demoRecords = 48

// App is the wired admin service.
type App struct {
	Handler    http.Handler
	Membership membership.Service
	closers    []func() error
}

// Build wires storage, services and handlers according to cfg.
func Build(ctx context.Context, cfg *config.Bootstrap, logger *zap.Logger) (*App, error) {
	app := &App{}

	repo, err := app.repository(ctx, cfg.Data, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	membershipSvc := membership.NewService(repo, logger.Named("membership"), membership.Options{
		SaveLatency:    cfg.Membership.SaveLatency,
		SavesPerMinute: cfg.Membership.SavesPerMinute,
		SaveBurst:      cfg.Membership.SaveBurst,
		Meter:          otel.Meter("rextra/membership"),
	})
	tiers, err := membershipSvc.ListTiers(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	tierIDs := make([]uuid.UUID, len(tiers))
	for i, t := range tiers {
		tierIDs[i] = t.ID
	}

	entitlementSvc := entitlement.NewService(tierIDs, logger.Named("entitlement"))
	ledgerSvc := ledger.NewService(logger.Named("ledger"))
	var records []assessment.Record
	if cfg.Data.SeedDemo {
		if err := ledger.Seed(ctx, ledgerSvc); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed ledger: %w", err)
		}
		records = assessment.SampleRecords(time.Now(), demoRecords)
	}
	assessmentSvc := assessment.NewService(records, logger.Named("assessment"))

	sessions := membership.NewSessionManager(membershipSvc, membership.WithIdleTTL(cfg.Membership.SessionIdleTTL))

	app.Membership = membershipSvc
	app.Handler = NewRouter(logger, Handlers{
		Membership:   membership.NewHandler(membershipSvc, sessions, logger),
		Entitlements: entitlement.NewHandler(entitlementSvc, logger),
		Ledger:       ledger.NewHandler(ledgerSvc, logger),
		Assessments:  assessment.NewHandler(assessmentSvc, logger),
	})
	return app, nil
}

func (a *App) repository(ctx context.Context, cfg config.Data, logger *zap.Logger) (membership.Repository, error) {
	tiers := membership.DefaultTiers()
	if cfg.Driver != config.DriverPostgres {
		return membership.NewMemoryRepository(tiers), nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := membership.NewPostgresRepository(db, eventstore.New(db))
	if err := repo.Migrate(ctx, tiers); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("using postgres membership store")
	return repo, nil
}

// Close releases the resources Build opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
