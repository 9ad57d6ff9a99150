package store

import (
	"context"
	"fmt"

	"github.com/dvloznov/smart-accountant/internal/config"
)

// Open creates the store selected by cfg.StoreBackend. The returned cleanup
// function releases any client or database handle and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.StoreMemory:
		return NewMemoryStore(), noop, nil
	case config.StoreFile:
		return NewFileStore(cfg.StoreFilePath), noop, nil
	case config.StoreGCS:
		s, err := NewGCSStore(ctx, cfg.StoreGCSURI)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.StoreSQLite:
		s, err := NewSQLiteStore(cfg.StoreSQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
