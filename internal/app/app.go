// Package app wires the services shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/config"
	"github.com/dvloznov/smart-accountant/internal/export/sheets"
	infraBQ "github.com/dvloznov/smart-accountant/internal/infra/bigquery"
	"github.com/dvloznov/smart-accountant/internal/ledger"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/notionsync"
	"github.com/dvloznov/smart-accountant/internal/pipeline"
	"github.com/dvloznov/smart-accountant/internal/store"
)

// App holds the configured services. Sheets and Notion are nil when the
// corresponding export is not configured.
type App struct {
	Config *config.Config
	Ledger *ledger.Service
	Users  auth.UserRepository
	Sheets *sheets.Exporter
	Notion notionsync.NotionService

	closers []func() error
}

// New builds every service selected by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	a.closers = append(a.closers, closeStore)

	extractor := pipeline.NewClient(pipeline.Config{
		APIKey:      cfg.APIKey(),
		Model:       cfg.GeminiModel,
		MaxAttempts: cfg.ExtractMaxAttempts,
		BackoffUnit: cfg.ExtractBackoffUnit,
	}, nil)
	if cfg.APIKey() == "" {
		log.Warn().Msg("No GEMINI_API_KEY configured - ingestion will fail until one is set")
	}

	a.Ledger, err = ledger.NewService(ctx, st, extractor)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.BigQueryProject != "" {
		repo, err := infraBQ.NewBigQueryUserRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		a.Users = repo
	} else {
		log.Warn().Msg("No BIGQUERY_PROJECT configured - users are kept in memory")
		a.Users = auth.NewMemoryUserRepository()
	}

	if cfg.SheetsEnabled() {
		a.Sheets, err = sheets.NewGoogleExporter(ctx, cfg.GoogleSpreadsheetID)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	if cfg.NotionEnabled() {
		a.Notion = notionsync.NewNotionClient(cfg.NotionToken)
	}

	log.Info().
		Str("store", cfg.StoreBackend).
		Str("model", cfg.GeminiModel).
		Bool("sheets_export", a.Sheets != nil).
		Bool("notion_export", a.Notion != nil).
		Msg("Services initialized")

	return a, nil
}

// Close releases every client in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
