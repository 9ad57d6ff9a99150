package handlers

import (
	"net/http"

	"github.com/dvloznov/smart-accountant/internal/api/middleware"
	"github.com/dvloznov/smart-accountant/internal/export/sheets"
	"github.com/dvloznov/smart-accountant/internal/ledger"
	"github.com/dvloznov/smart-accountant/internal/notionsync"
)

// ExportsHandler handles the spreadsheet and Notion export endpoints. A nil
// sheets exporter or Notion client means the export is not configured.
type ExportsHandler struct {
	svc        *ledger.Service
	sheets     *sheets.Exporter
	notion     notionsync.NotionService
	notionDBID string
}

// NewExportsHandler creates a new exports handler.
func NewExportsHandler(svc *ledger.Service, sheetsExporter *sheets.Exporter, notion notionsync.NotionService, notionDBID string) *ExportsHandler {
	return &ExportsHandler{
		svc:        svc,
		sheets:     sheetsExporter,
		notion:     notion,
		notionDBID: notionDBID,
	}
}

// ExportSheets handles POST /api/export/sheets
func (h *ExportsHandler) ExportSheets(w http.ResponseWriter, r *http.Request) {
	if h.sheets == nil {
		middleware.WriteError(w, http.StatusNotImplemented, "Google Sheets export is not configured")
		return
	}

	res, err := h.sheets.Export(r.Context(), h.svc.Snapshot())
	if err != nil {
		writeServiceError(r.Context(), w, err, "Sheets export")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// ExportNotion handles POST /api/export/notion?dry_run=true
func (h *ExportsHandler) ExportNotion(w http.ResponseWriter, r *http.Request) {
	if h.notion == nil || h.notionDBID == "" {
		middleware.WriteError(w, http.StatusNotImplemented, "Notion export is not configured")
		return
	}

	dryRun := r.URL.Query().Get("dry_run") == "true"
	res, err := notionsync.SyncLedger(r.Context(), h.notion, h.notionDBID, h.svc.Snapshot(), dryRun)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Notion export")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}
