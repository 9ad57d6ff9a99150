package ledger

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

func newTestBook() *Book {
	return NewBook(domain.Snapshot{
		Transactions: []domain.Transaction{
			{ID: "1", Currency: "USD", Amount: 100, Type: domain.TransactionIncoming, Description: "a"},
			{ID: "2", Currency: "TRY", Amount: 3450, Type: domain.TransactionOutgoing, Description: "b"},
			{ID: "3", Currency: "EUR", Amount: 5, Type: domain.TransactionUnknown},
		},
	})
}

func ids(b *Book) []string {
	var out []string
	for _, t := range b.Snapshot().Transactions {
		out = append(out, t.ID)
	}
	return out
}

func TestNewBook_DefaultRates(t *testing.T) {
	b := NewBook(domain.Snapshot{})
	snap := b.Snapshot()

	assert.Equal(t, DefaultRates(), snap.ExchangeRates)
	assert.NotNil(t, snap.Transactions)
	assert.Empty(t, snap.Transactions)
}

func TestBook_AppendPreservesOrder(t *testing.T) {
	b := newTestBook()
	b.Append(domain.Transaction{ID: "4"}, domain.Transaction{ID: "5"})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(b))
}

func TestBook_Update(t *testing.T) {
	b := newTestBook()

	got, err := b.Update("2", 1000, "rent")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.Amount)
	assert.Equal(t, "rent", got.Description)
	assert.Equal(t, domain.TransactionOutgoing, got.Type)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := b.Update("2", bad, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	_, err = b.Update("missing", 1, "x")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestBook_Delete(t *testing.T) {
	b := newTestBook()

	require.NoError(t, b.Delete("2"))
	assert.Equal(t, []string{"1", "3"}, ids(b))
	assert.ErrorIs(t, b.Delete("2"), ErrTransactionNotFound)
}

func TestBook_CycleType(t *testing.T) {
	b := newTestBook()

	var seen []domain.TransactionType
	for i := 0; i < 4; i++ {
		got, err := b.CycleType("1")
		require.NoError(t, err)
		seen = append(seen, got.Type)
	}

	assert.Equal(t, []domain.TransactionType{
		domain.TransactionOutgoing,
		domain.TransactionUnknown,
		domain.TransactionIncoming,
		domain.TransactionOutgoing,
	}, seen)
}

func TestBook_CycleCurrency(t *testing.T) {
	b := newTestBook()

	// Sorted codes: SYP, TRY, USD.
	got, err := b.CycleCurrency("1")
	require.NoError(t, err)
	assert.Equal(t, "SYP", got.Currency)

	got, err = b.CycleCurrency("1")
	require.NoError(t, err)
	assert.Equal(t, "TRY", got.Currency)

	// EUR is not in the table, so it moves to the first code.
	got, err = b.CycleCurrency("3")
	require.NoError(t, err)
	assert.Equal(t, "SYP", got.Currency)
}

func TestBook_CycleCurrency_SingleCurrencyIsNoop(t *testing.T) {
	b := NewBook(domain.Snapshot{
		Transactions:  []domain.Transaction{{ID: "1", Currency: "USD"}},
		ExchangeRates: domain.ExchangeRates{"USD": 1},
	})

	got, err := b.CycleCurrency("1")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
}

func TestBook_AddCurrency(t *testing.T) {
	b := newTestBook()
	require.NoError(t, b.SetRate("TRY", 40))

	code, err := b.AddCurrency("  eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	_, err = b.AddCurrency("try")
	require.NoError(t, err)

	rates := b.Snapshot().ExchangeRates
	assert.Equal(t, 1.0, rates["EUR"])
	assert.Equal(t, 40.0, rates["TRY"])

	_, err = b.AddCurrency("   ")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestBook_SetRateNonFiniteStoresZero(t *testing.T) {
	b := newTestBook()
	require.NoError(t, b.SetRate("TRY", math.Inf(1)))
	assert.Equal(t, 0.0, b.Snapshot().ExchangeRates["TRY"])
	assert.ErrorIs(t, b.SetRate("", 1), ErrInvalidCurrency)
}

func TestBook_SetRateNormalizesCode(t *testing.T) {
	b := newTestBook()
	require.NoError(t, b.SetRate(" try ", 35))
	require.NoError(t, b.SetRate("eur", 0.92))
	assert.ErrorIs(t, b.SetRate("  ", 1), ErrInvalidCurrency)

	rates := b.Snapshot().ExchangeRates
	assert.Equal(t, 35.0, rates["TRY"])
	assert.Equal(t, 0.92, rates["EUR"])
	assert.NotContains(t, rates, " try ")
	assert.NotContains(t, rates, "eur")

	b.RemoveCurrency("eur ")
	assert.NotContains(t, b.Snapshot().ExchangeRates, "EUR")
}

func TestBook_RemoveCurrencyKeepsTransactions(t *testing.T) {
	b := newTestBook()
	b.RemoveCurrency("TRY")

	snap := b.Snapshot()
	_, ok := snap.ExchangeRates["TRY"]
	assert.False(t, ok)
	assert.Equal(t, "TRY", snap.Transactions[1].Currency)

	summaries, _ := b.Summary()
	assert.Equal(t, 0.0, summaries[1].ReferenceValue)
}

func TestBook_ClearKeepsRates(t *testing.T) {
	b := newTestBook()
	b.Clear()

	snap := b.Snapshot()
	assert.Empty(t, snap.Transactions)
	assert.Equal(t, DefaultRates(), snap.ExchangeRates)
}

func TestBook_SnapshotIsACopy(t *testing.T) {
	b := newTestBook()
	snap := b.Snapshot()
	snap.Transactions[0].Amount = 1
	snap.ExchangeRates["USD"] = 7

	again := b.Snapshot()
	assert.Equal(t, 100.0, again.Transactions[0].Amount)
	assert.Equal(t, 1.0, again.ExchangeRates["USD"])
}

func TestShareText(t *testing.T) {
	summaries, total := Summarize([]domain.Transaction{
		tx("USD", 100, domain.TransactionIncoming),
		tx("TRY", 3450, domain.TransactionIncoming),
	}, domain.ExchangeRates{"USD": 1, "TRY": 34.5})

	text := ShareText(summaries, total, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))

	lines := strings.Split(text, "\n")
	assert.Equal(t, "Account statement summary (2025-03-09)", lines[0])
	assert.Contains(t, text, "USD: 100 (≈ 100.00 $)\n")
	assert.Contains(t, text, "TRY: 3450 (≈ 100.00 $)\n")
	assert.Contains(t, text, "Total balance: 200.00 $")
}
