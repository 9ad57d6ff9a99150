package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

func printTransactions(w io.Writer, txs []domain.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tAMOUNT\tCURRENCY\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\n", tx.Type, tx.Amount, tx.Currency, tx.Description)
	}
	tw.Flush()
}

func printSummary(w io.Writer, summaries []domain.CurrencySummary, total float64) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "The ledger is empty.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CURRENCY\tINCOMING\tOUTGOING\tBALANCE\tUSD VALUE\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			s.Currency, s.TotalIncoming, s.TotalOutgoing, s.Balance, s.ReferenceValue)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nTotal balance: %.2f $\n", total)
}

func printUsers(w io.Writer, users []domain.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tFULL NAME\tROLE\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			u.Username, u.FullName, u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02"))
	}
	tw.Flush()
}
