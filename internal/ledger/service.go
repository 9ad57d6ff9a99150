package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/store"
)

// Extractor turns pasted text into a batch of new transactions.
// *pipeline.Client satisfies it.
type Extractor interface {
	ExtractTransactions(ctx context.Context, text string) ([]domain.Transaction, error)
}

// Service owns the ledger book and persists every change through a Store.
// Mutations are applied to a copy and committed only after a successful
// save.
type Service struct {
	mu        sync.RWMutex
	book      *Book
	store     store.Store
	extractor Extractor
	ingesting *semaphore.Weighted
	now       func() time.Time
}

// NewService loads the saved ledger, or starts a fresh one with
// DefaultRates when nothing has been saved yet.
func NewService(ctx context.Context, st store.Store, extractor Extractor) (*Service, error) {
	log := logger.FromContext(ctx)

	snap, err := st.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info().Msg("No saved ledger found, starting with default rates")
		snap = domain.Snapshot{}
	case err != nil:
		return nil, fmt.Errorf("NewService: load ledger: %w", err)
	default:
		log.Info().Int("transactions", len(snap.Transactions)).Msg("Loaded saved ledger")
	}

	return &Service{
		book:      NewBook(snap),
		store:     st,
		extractor: extractor,
		ingesting: semaphore.NewWeighted(1),
		now:       time.Now,
	}, nil
}

// mutate runs fn on a copy of the book, saves the copy and commits it.
func (s *Service) mutate(ctx context.Context, fn func(b *Book) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := NewBook(s.book.Snapshot())
	if err := fn(next); err != nil {
		return err
	}
	if err := s.store.Save(ctx, next.Snapshot()); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	s.book = next
	return nil
}

// Ingest extracts transactions from text and appends the whole batch.
// Only one ingestion may be outstanding at a time; a second call fails with
// ErrIngestionInProgress instead of waiting. The ledger stays readable and
// editable while the extraction call is running.
func (s *Service) Ingest(ctx context.Context, text string) ([]domain.Transaction, error) {
	if !s.ingesting.TryAcquire(1) {
		return nil, ErrIngestionInProgress
	}
	defer s.ingesting.Release(1)
	return s.ingest(ctx, text)
}

// IngestWait is Ingest for queued work: it waits for an outstanding
// ingestion to finish instead of failing, and gives up only when ctx is
// done.
func (s *Service) IngestWait(ctx context.Context, text string) ([]domain.Transaction, error) {
	if err := s.ingesting.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.ingesting.Release(1)
	return s.ingest(ctx, text)
}

func (s *Service) ingest(ctx context.Context, text string) ([]domain.Transaction, error) {
	txs, err := s.extractor.ExtractTransactions(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.mutate(ctx, func(b *Book) error {
		b.Append(txs...)
		return nil
	}); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().Int("appended", len(txs)).Msg("Ingested transactions")
	return txs, nil
}

// Snapshot returns a deep copy of the ledger.
func (s *Service) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Snapshot()
}

// Summary recomputes the per-currency summaries and the reference total.
func (s *Service) Summary() ([]domain.CurrencySummary, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Summary()
}

// Share renders the plain-text statement for the current ledger.
func (s *Service) Share() (string, error) {
	summaries, total := s.Summary()
	if len(summaries) == 0 {
		return "", ErrEmptyLedger
	}
	return ShareText(summaries, total, s.now()), nil
}

// Rates returns a copy of the rate table.
func (s *Service) Rates() domain.ExchangeRates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.snap.ExchangeRates.Clone()
}

// Currencies returns the rate table codes in sorted order.
func (s *Service) Currencies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Currencies()
}

func (s *Service) UpdateTransaction(ctx context.Context, id string, amount float64, description string) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.Update(id, amount, description)
		return err
	})
	return out, err
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.mutate(ctx, func(b *Book) error {
		return b.Delete(id)
	})
}

func (s *Service) CycleType(ctx context.Context, id string) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.CycleType(id)
		return err
	})
	return out, err
}

func (s *Service) CycleCurrency(ctx context.Context, id string) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.CycleCurrency(id)
		return err
	})
	return out, err
}

// AddCurrency registers a currency and returns its normalized code.
func (s *Service) AddCurrency(ctx context.Context, code string) (string, error) {
	var out string
	err := s.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.AddCurrency(code)
		return err
	})
	return out, err
}

func (s *Service) SetRate(ctx context.Context, code string, rate float64) error {
	return s.mutate(ctx, func(b *Book) error {
		return b.SetRate(code, rate)
	})
}

func (s *Service) RemoveCurrency(ctx context.Context, code string) error {
	return s.mutate(ctx, func(b *Book) error {
		b.RemoveCurrency(code)
		return nil
	})
}

// Clear removes every transaction. confirmation must equal
// ClearConfirmation.
func (s *Service) Clear(ctx context.Context, confirmation string) error {
	if confirmation != ClearConfirmation {
		return ErrClearNotConfirmed
	}
	if err := s.mutate(ctx, func(b *Book) error {
		b.Clear()
		return nil
	}); err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Warn().Msg("Ledger cleared")
	return nil
}

// Restore replaces the whole ledger with snap (backup import). A snapshot
// without a rate table gets DefaultRates. Every transaction needs a unique
// id and a finite, non-negative amount; types are normalized onto the known
// set.
func (s *Service) Restore(ctx context.Context, snap domain.Snapshot) error {
	snap = snap.Clone()
	seen := make(map[string]struct{}, len(snap.Transactions))
	for i := range snap.Transactions {
		tx := &snap.Transactions[i]
		if tx.ID == "" {
			return fmt.Errorf("%w: transaction %d has no id", ErrInvalidBackup, i)
		}
		if _, dup := seen[tx.ID]; dup {
			return fmt.Errorf("%w: duplicate transaction id %q", ErrInvalidBackup, tx.ID)
		}
		seen[tx.ID] = struct{}{}
		if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) || tx.Amount < 0 {
			return fmt.Errorf("%w: transaction %q has invalid amount %v", ErrInvalidBackup, tx.ID, tx.Amount)
		}
		tx.Type = domain.ParseTransactionType(string(tx.Type))
	}
	return s.mutate(ctx, func(b *Book) error {
		*b = *NewBook(snap)
		return nil
	})
}
