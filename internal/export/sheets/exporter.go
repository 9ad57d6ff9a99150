package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/ledger"
	"github.com/dvloznov/smart-accountant/internal/logger"
)

// SheetWriter is the subset of the Sheets API the exporter needs.
// This interface enables mocking and testing of the export.
type SheetWriter interface {
	// EnsureSheets creates any of the named tabs that do not exist yet.
	EnsureSheets(ctx context.Context, titles ...string) error
	// Replace clears a tab and writes rows starting at A1.
	Replace(ctx context.Context, sheet string, rows [][]any) error
}

// Result summarizes one export.
type Result struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	Transactions  int    `json:"transactions"`
	Currencies    int    `json:"currencies"`
}

// Exporter writes ledger snapshots to a spreadsheet.
type Exporter struct {
	writer        SheetWriter
	spreadsheetID string
}

// NewExporter creates an Exporter over an existing writer.
func NewExporter(writer SheetWriter, spreadsheetID string) *Exporter {
	return &Exporter{writer: writer, spreadsheetID: spreadsheetID}
}

// NewGoogleExporter creates an Exporter backed by the Sheets API. Without
// options, Application Default Credentials are used.
func NewGoogleExporter(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	opts = append([]goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return NewExporter(&googleWriter{svc: svc, spreadsheetID: spreadsheetID}, spreadsheetID), nil
}

// Export rewrites both tabs from snap.
func (e *Exporter) Export(ctx context.Context, snap domain.Snapshot) (*Result, error) {
	log := logger.FromContext(ctx)

	if err := e.writer.EnsureSheets(ctx, TransactionsSheet, SummarySheet); err != nil {
		return nil, fmt.Errorf("Export: ensure sheets: %w", err)
	}

	if err := e.writer.Replace(ctx, TransactionsSheet, BuildTransactionRows(snap.Transactions)); err != nil {
		return nil, fmt.Errorf("Export: write %s: %w", TransactionsSheet, err)
	}

	summaries, total := ledger.Summarize(snap.Transactions, snap.ExchangeRates)
	if err := e.writer.Replace(ctx, SummarySheet, BuildSummaryRows(summaries, total)); err != nil {
		return nil, fmt.Errorf("Export: write %s: %w", SummarySheet, err)
	}

	log.Info().
		Str("spreadsheet_id", e.spreadsheetID).
		Int("transactions", len(snap.Transactions)).
		Int("currencies", len(summaries)).
		Msg("Exported ledger to Google Sheets")

	return &Result{
		SpreadsheetID: e.spreadsheetID,
		Transactions:  len(snap.Transactions),
		Currencies:    len(summaries),
	}, nil
}

// googleWriter implements SheetWriter with the Sheets v4 API.
type googleWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (w *googleWriter) EnsureSheets(ctx context.Context, titles ...string) error {
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, title := range titles {
		if !existing[title] {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	return nil
}

func (w *googleWriter) Replace(ctx context.Context, sheet string, rows [][]any) error {
	rng := fmt.Sprintf("'%s'!A:Z", sheet)
	if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	vr := &gsheet.ValueRange{Values: rows}
	_, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("'%s'!A1", sheet), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", sheet, err)
	}
	return nil
}
