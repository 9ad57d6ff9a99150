// Package ledger folds transactions into per-currency summaries and owns the
// mutable book of transactions and exchange rates.
package ledger

import "github.com/dvloznov/smart-accountant/internal/domain"

// Summarize folds txs into one summary per distinct currency, in first-seen
// order, and the sum of every summary's reference value.
//
// Currency codes are grouping keys verbatim. Transactions whose type is not
// INCOMING or OUTGOING still make their currency appear but add to neither
// total. A missing or non-positive rate yields a reference value of exactly 0.
func Summarize(txs []domain.Transaction, rates domain.ExchangeRates) ([]domain.CurrencySummary, float64) {
	summaries := []domain.CurrencySummary{}
	index := make(map[string]int)

	for _, tx := range txs {
		i, ok := index[tx.Currency]
		if !ok {
			i = len(summaries)
			index[tx.Currency] = i
			summaries = append(summaries, domain.CurrencySummary{Currency: tx.Currency})
		}

		switch tx.Type {
		case domain.TransactionIncoming:
			summaries[i].TotalIncoming += tx.Amount
		case domain.TransactionOutgoing:
			summaries[i].TotalOutgoing += tx.Amount
		}
	}

	var total float64
	for i := range summaries {
		s := &summaries[i]
		s.Balance = s.TotalIncoming - s.TotalOutgoing
		s.ReferenceValue = referenceValue(s.Balance, rates[s.Currency])
		total += s.ReferenceValue
	}

	return summaries, total
}

func referenceValue(balance, rate float64) float64 {
	if rate > 0 {
		return balance / rate
	}
	return 0
}
