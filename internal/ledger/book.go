package ledger

import (
	"math"
	"sort"
	"strings"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// ClearConfirmation must be supplied to wipe all transactions.
const ClearConfirmation = "CLEAR"

// DefaultRates is the rate table of a fresh ledger, priced in USD.
func DefaultRates() domain.ExchangeRates {
	return domain.ExchangeRates{
		"USD": 1,
		"TRY": 34.5,
		"SYP": 14500,
	}
}

// Book is the mutable ledger aggregate. It is not safe for concurrent use;
// Service serializes access to it.
type Book struct {
	snap domain.Snapshot
}

// NewBook wraps a snapshot. A nil rate table is replaced by DefaultRates.
func NewBook(snap domain.Snapshot) *Book {
	snap = snap.Clone()
	if snap.ExchangeRates == nil {
		snap.ExchangeRates = DefaultRates()
	}
	if snap.Transactions == nil {
		snap.Transactions = []domain.Transaction{}
	}
	return &Book{snap: snap}
}

// Snapshot returns a deep copy of the current state.
func (b *Book) Snapshot() domain.Snapshot {
	return b.snap.Clone()
}

// Append adds txs to the end of the ledger in the given order.
func (b *Book) Append(txs ...domain.Transaction) {
	b.snap.Transactions = append(b.snap.Transactions, txs...)
}

func (b *Book) find(id string) (int, error) {
	for i := range b.snap.Transactions {
		if b.snap.Transactions[i].ID == id {
			return i, nil
		}
	}
	return -1, ErrTransactionNotFound
}

// Update replaces the amount and description of a transaction.
func (b *Book) Update(id string, amount float64, description string) (domain.Transaction, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return domain.Transaction{}, ErrInvalidAmount
	}
	i, err := b.find(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	b.snap.Transactions[i].Amount = amount
	b.snap.Transactions[i].Description = description
	return b.snap.Transactions[i], nil
}

// Delete removes a transaction, keeping the order of the rest.
func (b *Book) Delete(id string) error {
	i, err := b.find(id)
	if err != nil {
		return err
	}
	b.snap.Transactions = append(b.snap.Transactions[:i], b.snap.Transactions[i+1:]...)
	return nil
}

// CycleType advances INCOMING -> OUTGOING -> UNKNOWN -> INCOMING.
func (b *Book) CycleType(id string) (domain.Transaction, error) {
	i, err := b.find(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx := &b.snap.Transactions[i]
	switch tx.Type {
	case domain.TransactionIncoming:
		tx.Type = domain.TransactionOutgoing
	case domain.TransactionOutgoing:
		tx.Type = domain.TransactionUnknown
	default:
		tx.Type = domain.TransactionIncoming
	}
	return *tx, nil
}

// Currencies returns the codes of the rate table in sorted order.
func (b *Book) Currencies() []string {
	codes := make([]string, 0, len(b.snap.ExchangeRates))
	for code := range b.snap.ExchangeRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CycleCurrency moves a transaction to the next currency of the rate table.
// A currency missing from the table moves to the first code.
func (b *Book) CycleCurrency(id string) (domain.Transaction, error) {
	i, err := b.find(id)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx := &b.snap.Transactions[i]

	codes := b.Currencies()
	if len(codes) == 0 {
		return *tx, nil
	}
	if len(codes) == 1 && codes[0] == tx.Currency {
		return *tx, nil
	}

	next := codes[0]
	for j, code := range codes {
		if code == tx.Currency {
			next = codes[(j+1)%len(codes)]
			break
		}
	}
	tx.Currency = next
	return *tx, nil
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AddCurrency registers a currency code with rate 1. The code is
// normalized first; an existing code keeps its rate.
func (b *Book) AddCurrency(code string) (string, error) {
	code = NormalizeCurrency(code)
	if code == "" {
		return "", ErrInvalidCurrency
	}
	if _, ok := b.snap.ExchangeRates[code]; !ok {
		b.snap.ExchangeRates[code] = 1
	}
	return code, nil
}

// SetRate stores the price of the normalized code in the reference
// currency. Non-finite rates are stored as 0.
func (b *Book) SetRate(code string, rate float64) error {
	code = NormalizeCurrency(code)
	if code == "" {
		return ErrInvalidCurrency
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 0
	}
	b.snap.ExchangeRates[code] = rate
	return nil
}

// RemoveCurrency deletes a rate. Transactions keep their code.
func (b *Book) RemoveCurrency(code string) {
	delete(b.snap.ExchangeRates, NormalizeCurrency(code))
}

// Clear removes every transaction and keeps the rate table.
func (b *Book) Clear() {
	b.snap.Transactions = []domain.Transaction{}
}

// Summary recomputes the per-currency summaries.
func (b *Book) Summary() ([]domain.CurrencySummary, float64) {
	return Summarize(b.snap.Transactions, b.snap.ExchangeRates)
}
