package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreGCS    = "gcs"
	StoreSQLite = "sqlite"
)

// Config holds every runtime setting of the API server and the CLI.
type Config struct {
	// Extraction service
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	LegacyAPIKey       string        `env:"API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	ExtractMaxAttempts int           `env:"EXTRACT_MAX_ATTEMPTS" envDefault:"3"`
	ExtractBackoffUnit time.Duration `env:"EXTRACT_BACKOFF_UNIT" envDefault:"1s"`

	// Ledger persistence
	StoreBackend    string `env:"STORE_BACKEND" envDefault:"file"`
	StoreFilePath   string `env:"STORE_FILE_PATH" envDefault:"./data/ledger.json"`
	StoreGCSURI     string `env:"STORE_GCS_URI"`
	StoreSQLitePath string `env:"STORE_SQLITE_PATH" envDefault:"./data/ledger.db"`

	// Users
	BigQueryProject string        `env:"BIGQUERY_PROJECT"`
	BigQueryDataset string        `env:"BIGQUERY_DATASET" envDefault:"accountant"`
	AdminUsername   string        `env:"ADMIN_USERNAME"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`
	AdminFullName   string        `env:"ADMIN_FULL_NAME" envDefault:"Administrator"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// HTTP
	Port string `env:"PORT" envDefault:"8080"`

	// Exports
	GoogleSpreadsheetID string `env:"GOOGLE_SPREADSHEET_ID"`
	NotionToken         string `env:"NOTION_TOKEN"`
	NotionDatabaseID    string `env:"NOTION_DATABASE_ID"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIKey returns the extraction credential, preferring GEMINI_API_KEY.
func (c *Config) APIKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.LegacyAPIKey
}

// Validate checks settings that cannot be defaulted.
// A missing API key is deliberately not an error here: it surfaces per call.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	// env applies envDefault only to unset variables, so STORE_BACKEND=""
	// arrives here empty.
	if c.StoreBackend == "" {
		c.StoreBackend = StoreFile
	}
	switch c.StoreBackend {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreGCS:
		if c.StoreGCSURI == "" {
			return fmt.Errorf("config: STORE_GCS_URI is required for the %q store backend", StoreGCS)
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.ExtractMaxAttempts < 1 {
		return fmt.Errorf("config: EXTRACT_MAX_ATTEMPTS must be at least 1, got %d", c.ExtractMaxAttempts)
	}
	if c.ExtractBackoffUnit < 0 {
		return fmt.Errorf("config: EXTRACT_BACKOFF_UNIT must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("config: ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// NotionEnabled reports whether the Notion export is configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}
