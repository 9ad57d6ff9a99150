// Package sheets exports the ledger to a Google spreadsheet with a
// transactions tab and a currency summary tab.
package sheets

import (
	"math"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// Tab names written by the exporter.
const (
	TransactionsSheet = "Transactions"
	SummarySheet      = "Summary"
)

var (
	transactionsHeader = []any{"Status", "Amount", "Currency", "Description"}
	summaryHeader      = []any{"Currency", "Total incoming", "Total outgoing", "Balance", "USD value"}
)

// statusLabel is the human label of a transaction type.
func statusLabel(t domain.TransactionType) string {
	switch t {
	case domain.TransactionIncoming:
		return "Incoming"
	case domain.TransactionOutgoing:
		return "Outgoing"
	default:
		return "Unknown"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildTransactionRows renders the transactions tab, header first.
func BuildTransactionRows(txs []domain.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, transactionsHeader)
	for _, tx := range txs {
		rows = append(rows, []any{statusLabel(tx.Type), tx.Amount, tx.Currency, tx.Description})
	}
	return rows
}

// BuildSummaryRows renders the summary tab: header, one row per currency and
// a final total row. Reference values are rounded to cents.
func BuildSummaryRows(summaries []domain.CurrencySummary, referenceTotal float64) [][]any {
	rows := make([][]any, 0, len(summaries)+2)
	rows = append(rows, summaryHeader)
	for _, s := range summaries {
		rows = append(rows, []any{s.Currency, s.TotalIncoming, s.TotalOutgoing, s.Balance, round2(s.ReferenceValue)})
	}
	rows = append(rows, []any{"Total", "", "", "", round2(referenceTotal)})
	return rows
}
