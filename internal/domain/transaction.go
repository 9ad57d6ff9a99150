package domain

import "strings"

// TransactionType is the direction of a transaction. The amount itself is
// always an unsigned magnitude; only the type decides the sign.
type TransactionType string

const (
	// TransactionIncoming increases the balance of its currency.
	TransactionIncoming TransactionType = "INCOMING"
	// TransactionOutgoing decreases the balance of its currency.
	TransactionOutgoing TransactionType = "OUTGOING"
	// TransactionUnknown is recorded but counted in neither direction until
	// someone reclassifies it.
	TransactionUnknown TransactionType = "UNKNOWN"
)

// ParseTransactionType maps a free-form type code onto the closed set.
// Anything unrecognized becomes TransactionUnknown.
func ParseTransactionType(s string) TransactionType {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionIncoming:
		return TransactionIncoming
	case TransactionOutgoing:
		return TransactionOutgoing
	default:
		return TransactionUnknown
	}
}

// Valid reports whether t is one of the three known types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIncoming, TransactionOutgoing, TransactionUnknown:
		return true
	}
	return false
}

// Transaction is one extracted or manually entered financial event.
// JSON field names match the browser backup format.
type Transaction struct {
	ID          string          `json:"id"`
	Currency    string          `json:"currency"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
}

// ExchangeRates maps a currency code to its price in the reference currency
// (the reference currency itself has rate 1). A zero or missing rate means the
// currency cannot be expressed in the reference currency.
type ExchangeRates map[string]float64

// Clone returns an independent copy of the table.
func (r ExchangeRates) Clone() ExchangeRates {
	if r == nil {
		return nil
	}
	out := make(ExchangeRates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CurrencySummary is the derived per-currency projection of a ledger.
type CurrencySummary struct {
	Currency       string  `json:"currency"`
	TotalIncoming  float64 `json:"totalIncoming"`
	TotalOutgoing  float64 `json:"totalOutgoing"`
	Balance        float64 `json:"balance"`
	ReferenceValue float64 `json:"referenceValue"`
}

// Snapshot is the persisted ledger aggregate: the ordered transaction list
// and the rate table.
type Snapshot struct {
	Transactions  []Transaction `json:"transactions"`
	ExchangeRates ExchangeRates `json:"exchangeRates"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{ExchangeRates: s.ExchangeRates.Clone()}
	if s.Transactions != nil {
		out.Transactions = make([]Transaction, len(s.Transactions))
		copy(out.Transactions, s.Transactions)
	}
	return out
}
