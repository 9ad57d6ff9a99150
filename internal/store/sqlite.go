package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const savedAtKey = "saved_at"

// SQLiteStore keeps the snapshot in a local SQLite database. Transaction
// order is kept in the position column.
type SQLiteStore struct {
	db *sql.DB
}

// RunMigrations applies the embedded schema migrations to the database at
// dbPath.
func RunMigrations(dbPath string) error {
	// Separate connection so the migrator can close it freely.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// NewSQLiteStore opens (creating if needed) and migrates the database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Snapshot, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ledger_meta WHERE key = ?`, savedAtKey).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read ledger meta: %w", err)
	}

	snap := domain.Snapshot{
		Transactions:  []domain.Transaction{},
		ExchangeRates: domain.ExchangeRates{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, currency, amount, type, description FROM ledger_transactions ORDER BY position`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx domain.Transaction
		var typ string
		if err := rows.Scan(&tx.ID, &tx.Currency, &tx.Amount, &typ, &tx.Description); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = domain.TransactionType(typ)
		snap.Transactions = append(snap.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}

	rateRows, err := s.db.QueryContext(ctx, `SELECT currency, rate FROM exchange_rates`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("query exchange rates: %w", err)
	}
	defer rateRows.Close()

	for rateRows.Next() {
		var code string
		var rate float64
		if err := rateRows.Scan(&code, &rate); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan exchange rate: %w", err)
		}
		snap.ExchangeRates[code] = rate
	}
	if err := rateRows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("iterate exchange rates: %w", err)
	}

	return snap, nil
}

// Save replaces the stored snapshot in a single database transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap domain.Snapshot) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM ledger_transactions`); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM exchange_rates`); err != nil {
		return fmt.Errorf("delete exchange rates: %w", err)
	}

	for i, tx := range snap.Transactions {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO ledger_transactions (position, id, currency, amount, type, description) VALUES (?, ?, ?, ?, ?, ?)`,
			i, tx.ID, tx.Currency, tx.Amount, string(tx.Type), tx.Description)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}
	for code, rate := range snap.ExchangeRates {
		if _, err := dbtx.ExecContext(ctx,
			`INSERT INTO exchange_rates (currency, rate) VALUES (?, ?)`, code, rate); err != nil {
			return fmt.Errorf("insert exchange rate %s: %w", code, err)
		}
	}

	if _, err := dbtx.ExecContext(ctx,
		`INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		savedAtKey, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("update ledger meta: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM ledger_transactions`,
		`DELETE FROM exchange_rates`,
		`DELETE FROM ledger_meta`,
	} {
		if _, err := dbtx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
	}
	return dbtx.Commit()
}
