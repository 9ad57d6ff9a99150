// Package store persists the ledger aggregate {transactions, exchangeRates}.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("store: no saved ledger")

// Store is the persistence port for the ledger. Save replaces the whole
// aggregate; the last write wins.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
	Clear(ctx context.Context) error
}

// Encode writes snap in the browser backup format.
func Encode(w io.Writer, snap domain.Snapshot) error {
	if snap.Transactions == nil {
		snap.Transactions = []domain.Transaction{}
	}
	if snap.ExchangeRates == nil {
		snap.ExchangeRates = domain.ExchangeRates{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return nil
}

// Decode reads a backup. Keys other than transactions and exchangeRates are
// ignored.
func Decode(r io.Reader) (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode ledger: %w", err)
	}
	return snap, nil
}

// MemoryStore keeps the snapshot in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  domain.Snapshot
	saved bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.saved {
		return domain.Snapshot{}, ErrNotFound
	}
	return m.snap.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	m.saved = true
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = domain.Snapshot{}
	m.saved = false
	return nil
}
