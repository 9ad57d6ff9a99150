package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/config"
)

func TestNew_LocalDefaults(t *testing.T) {
	cfg := &config.Config{
		StoreBackend:       config.StoreFile,
		StoreFilePath:      filepath.Join(t.TempDir(), "ledger.json"),
		ExtractMaxAttempts: 3,
	}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &auth.MemoryUserRepository{}, a.Users)
	assert.Nil(t, a.Sheets)
	assert.Nil(t, a.Notion)
	assert.Empty(t, a.Ledger.Snapshot().Transactions)
}

func TestNew_NotionConfigured(t *testing.T) {
	cfg := &config.Config{
		StoreBackend:     config.StoreMemory,
		NotionToken:      "secret",
		NotionDatabaseID: "db",
	}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Notion)
}

func TestNew_UnknownStore(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreBackend: "floppy"})
	assert.Error(t, err)
}
