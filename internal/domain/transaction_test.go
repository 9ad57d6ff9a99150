package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input string
		want  TransactionType
	}{
		{"INCOMING", TransactionIncoming},
		{"outgoing", TransactionOutgoing},
		{"  Incoming ", TransactionIncoming},
		{"UNKNOWN", TransactionUnknown},
		{"CREDIT", TransactionUnknown},
		{"", TransactionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTransactionType(tt.input))
		})
	}
}

func TestTransactionType_Valid(t *testing.T) {
	assert.True(t, TransactionIncoming.Valid())
	assert.True(t, TransactionUnknown.Valid())
	assert.False(t, TransactionType("incoming").Valid())
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	orig := Snapshot{
		Transactions:  []Transaction{{ID: "1", Currency: "USD", Amount: 5, Type: TransactionIncoming}},
		ExchangeRates: ExchangeRates{"USD": 1},
	}

	cp := orig.Clone()
	cp.Transactions[0].Amount = 99
	cp.ExchangeRates["USD"] = 2

	assert.Equal(t, 5.0, orig.Transactions[0].Amount)
	assert.Equal(t, 1.0, orig.ExchangeRates["USD"])
}

func TestSnapshot_DecodesBrowserBackup(t *testing.T) {
	raw := `{
		"transactions": [
			{"id": "1700000000000-0", "currency": "TRY", "amount": 3450, "type": "INCOMING", "description": "rent"}
		],
		"exchangeRates": {"USD": 1, "TRY": 34.5},
		"iconSettings": {"INCOMING": "ArrowDownCircle"}
	}`

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))

	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, Transaction{
		ID:          "1700000000000-0",
		Currency:    "TRY",
		Amount:      3450,
		Type:        TransactionIncoming,
		Description: "rent",
	}, snap.Transactions[0])
	assert.Equal(t, ExchangeRates{"USD": 1, "TRY": 34.5}, snap.ExchangeRates)
}
