package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

const shareDateLayout = "2006-01-02"

// ShareText renders the plain-text statement sent to chat apps: a dated
// header, one line per currency and the grand total.
func ShareText(summaries []domain.CurrencySummary, referenceTotal float64, date time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Account statement summary (%s)\n\n", date.Format(shareDateLayout))
	for _, s := range summaries {
		fmt.Fprintf(&sb, "%s: %s (≈ %.2f $)\n", s.Currency, formatAmount(s.Balance), s.ReferenceValue)
	}
	fmt.Fprintf(&sb, "\nTotal balance: %.2f $\n", referenceTotal)

	return sb.String()
}

// formatAmount prints the shortest exact decimal form, without exponent.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
