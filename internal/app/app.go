// Package app wires configuration into the service components shared by the
// API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/rent-ledger/internal/categorizer"
	"github.com/dvloznov/rent-ledger/internal/config"
	"github.com/dvloznov/rent-ledger/internal/gcs"
	infraBQ "github.com/dvloznov/rent-ledger/internal/infra/bigquery"
	infraFS "github.com/dvloznov/rent-ledger/internal/infra/firestore"
	"github.com/dvloznov/rent-ledger/internal/logger"
	"github.com/dvloznov/rent-ledger/internal/provider"
	"github.com/dvloznov/rent-ledger/internal/rules"
	"github.com/dvloznov/rent-ledger/internal/syncer"
)

// App holds the wired components. Close releases their clients.
type App struct {
	Config    *config.Config
	Store     *infraFS.Store
	Engine    *categorizer.Engine
	Syncer    *syncer.Orchestrator
	Generator *rules.Generator
	Corrector *rules.Corrector

	closers []func() error
}

// New connects to Firestore, Plaid and the optional audit sink.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.RequireProject(); err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	if err := cfg.RequirePlaid(); err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}

	a := &App{Config: cfg}

	st, err := infraFS.NewStore(ctx, cfg.GCP.ProjectID, cfg.Firestore.Database)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	engine, err := NewEngine(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.Engine = engine

	plaidClient, err := provider.NewPlaidClient(provider.PlaidConfig{
		ClientID:    cfg.Plaid.ClientID,
		Secret:      cfg.Plaid.Secret,
		Environment: cfg.Plaid.Environment,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	client := provider.NewRetryingClient(plaidClient, cfg.Sync.MaxRetries)

	opts := []syncer.Option{syncer.WithConfig(syncer.Config{
		PageSize:   cfg.Sync.PageSize,
		BatchLimit: cfg.Sync.BatchLimit,
		LeaseTTL:   cfg.Sync.LeaseTTL,
	})}
	if cfg.Audit.Enabled {
		sink, err := newAuditSink(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.closers = append(a.closers, sink.Close)
		opts = append(opts, syncer.WithAuditSink(sink))
	}

	a.Syncer = syncer.New(st, client, engine, opts...)
	a.Generator = rules.NewGenerator(st)
	a.Corrector = rules.NewCorrector(st, engine)
	return a, nil
}

// NewEngine builds the categorization engine: vendor map from GCS when
// configured, and the model-backed generalizer when enabled.
func NewEngine(ctx context.Context, cfg *config.Config) (*categorizer.Engine, error) {
	vendors := categorizer.DefaultVendorMap()
	if cfg.Categorizer.VendorMapURI != "" {
		objects, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
		defer objects.Close()

		vendors, err = gcs.LoadVendorMap(ctx, objects, cfg.Categorizer.VendorMapURI)
		if err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
	}

	opts := []categorizer.Option{
		categorizer.WithReviewThreshold(cfg.Categorizer.ReviewThreshold),
		categorizer.WithStrategies(categorizer.DefaultStrategies(vendors)...),
	}
	if cfg.Categorizer.GeneralizerEnabled {
		g, err := categorizer.NewGenAIGeneralizer(ctx, cfg.Categorizer.GeneralizerModel)
		if err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
		opts = append(opts, categorizer.WithGeneralizer(g))
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("vendors", vendors.Len()).
		Bool("model_generalizer", cfg.Categorizer.GeneralizerEnabled).
		Float64("review_threshold", cfg.Categorizer.ReviewThreshold).
		Msg("Categorization engine ready")

	return categorizer.NewEngine(opts...), nil
}

func newAuditSink(ctx context.Context, cfg *config.Config) (*infraBQ.AuditSink, error) {
	sink, err := infraBQ.NewAuditSink(ctx, cfg.GCP.ProjectID, cfg.Audit.Dataset, cfg.Audit.Table)
	if err != nil {
		return nil, err
	}
	if err := sink.EnsureTable(ctx); err != nil {
		_ = sink.Close()
		return nil, err
	}
	return sink, nil
}

// Close releases all clients, most recently opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
