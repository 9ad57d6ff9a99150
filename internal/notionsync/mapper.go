package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// Property names of the ledger database.
const (
	propDescription   = "Description"
	propTransactionID = "Transaction ID"
	propAmount        = "Amount"
	propCurrency      = "Currency"
	propType          = "Type"
	propPosition      = "Position"
	propUSDValue      = "USD Value"
)

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// signedAmount applies the direction of the transaction to its magnitude.
// UNKNOWN transactions count as zero.
func signedAmount(tx domain.Transaction) float64 {
	switch tx.Type {
	case domain.TransactionIncoming:
		return tx.Amount
	case domain.TransactionOutgoing:
		return -tx.Amount
	default:
		return 0
	}
}

// TransactionToNotionProperties converts a ledger transaction to Notion
// properties. position is the index of the transaction in the ledger.
func TransactionToNotionProperties(tx domain.Transaction, position int, rates domain.ExchangeRates) notionapi.Properties {
	description := tx.Description
	if description == "" {
		description = "(no description)"
	}

	props := notionapi.Properties{
		propDescription: notionapi.TitleProperty{
			Title: richText(description),
		},
		propTransactionID: notionapi.RichTextProperty{
			RichText: richText(tx.ID),
		},
		propAmount: notionapi.NumberProperty{
			Number: tx.Amount,
		},
		propType: notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(tx.Type)},
		},
		propPosition: notionapi.NumberProperty{
			Number: float64(position),
		},
	}

	// Notion rejects empty select options.
	if tx.Currency != "" {
		props[propCurrency] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Currency},
		}
	}

	var usd float64
	if rate := rates[tx.Currency]; rate > 0 {
		usd = signedAmount(tx) / rate
	}
	props[propUSDValue] = notionapi.NumberProperty{Number: usd}

	return props
}

// extractTransactionID reads the Transaction ID property of a page.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties[propTransactionID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			return rt.RichText[0].PlainText
		}
	}
	return ""
}
