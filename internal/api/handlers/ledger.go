package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/smart-accountant/internal/api/middleware"
	"github.com/dvloznov/smart-accountant/internal/domain"
	"github.com/dvloznov/smart-accountant/internal/ledger"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/store"
)

// maxBodyBytes bounds ingestion and restore payloads.
const maxBodyBytes = 8 << 20

// LedgerHandler handles the ledger, summary, ingestion, rate and backup
// endpoints.
type LedgerHandler struct {
	svc *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

type summaryResponse struct {
	Summaries      []domain.CurrencySummary `json:"summaries"`
	ReferenceTotal float64                  `json:"referenceTotal"`
}

type ledgerResponse struct {
	domain.Snapshot
	summaryResponse
}

// GetLedger handles GET /api/ledger
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	summaries, total := ledger.Summarize(snap.Transactions, snap.ExchangeRates)

	middleware.WriteJSON(w, http.StatusOK, ledgerResponse{
		Snapshot:        snap,
		summaryResponse: summaryResponse{Summaries: summaries, ReferenceTotal: total},
	})
}

// GetSummary handles GET /api/summary
func (h *LedgerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summaries, total := h.svc.Summary()
	middleware.WriteJSON(w, http.StatusOK, summaryResponse{Summaries: summaries, ReferenceTotal: total})
}

// Share handles GET /api/share
func (h *LedgerHandler) Share(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.Share()
	if err != nil {
		writeServiceError(r.Context(), w, err, "Share")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Ingest handles POST /api/ingest
func (h *LedgerHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txs, err := h.svc.Ingest(r.Context(), req.Text)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Ingest")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// UpdateTransaction handles PATCH /api/transactions/{id}
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      *float64 `json:"amount"`
		Description *string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := r.PathValue("id")
	current, ok := findTransaction(h.svc.Snapshot(), id)
	if !ok {
		writeServiceError(r.Context(), w, ledger.ErrTransactionNotFound, "Update transaction")
		return
	}
	amount, description := current.Amount, current.Description
	if req.Amount != nil {
		amount = *req.Amount
	}
	if req.Description != nil {
		description = *req.Description
	}

	tx, err := h.svc.UpdateTransaction(r.Context(), id, amount, description)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

func findTransaction(snap domain.Snapshot, id string) (domain.Transaction, bool) {
	for _, tx := range snap.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(r.Context(), w, err, "Delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CycleType handles POST /api/transactions/{id}/cycle-type
func (h *LedgerHandler) CycleType(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.CycleType(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Cycle type")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// CycleCurrency handles POST /api/transactions/{id}/cycle-currency
func (h *LedgerHandler) CycleCurrency(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.CycleCurrency(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Cycle currency")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// Clear handles POST /api/transactions/clear
func (h *LedgerHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmation string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.svc.Clear(r.Context(), req.Confirmation); err != nil {
		writeServiceError(r.Context(), w, err, "Clear")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRates handles GET /api/rates
func (h *LedgerHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"exchangeRates": h.svc.Rates(),
		"currencies":    h.svc.Currencies(),
	})
}

// AddCurrency handles POST /api/rates
func (h *LedgerHandler) AddCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string   `json:"currency"`
		Rate     *float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code, err := h.svc.AddCurrency(r.Context(), req.Currency)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Add currency")
		return
	}
	if req.Rate != nil {
		if err := h.svc.SetRate(r.Context(), code, *req.Rate); err != nil {
			writeServiceError(r.Context(), w, err, "Set rate")
			return
		}
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"currency": code,
		"rate":     h.svc.Rates()[code],
	})
}

// SetRate handles PUT /api/rates/{currency}
func (h *LedgerHandler) SetRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	code := ledger.NormalizeCurrency(r.PathValue("currency"))
	if err := h.svc.SetRate(r.Context(), code, req.Rate); err != nil {
		writeServiceError(r.Context(), w, err, "Set rate")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"currency": code,
		"rate":     h.svc.Rates()[code],
	})
}

// RemoveCurrency handles DELETE /api/rates/{currency}
func (h *LedgerHandler) RemoveCurrency(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveCurrency(r.Context(), r.PathValue("currency")); err != nil {
		writeServiceError(r.Context(), w, err, "Remove currency")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backup handles GET /api/backup
func (h *LedgerHandler) Backup(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("ledger-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := store.Encode(w, h.svc.Snapshot()); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to write backup")
	}
}

// Restore handles POST /api/restore
func (h *LedgerHandler) Restore(w http.ResponseWriter, r *http.Request) {
	snap, err := store.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid backup file")
		return
	}

	if err := h.svc.Restore(r.Context(), snap); err != nil {
		writeServiceError(r.Context(), w, err, "Restore")
		return
	}

	log := logger.FromContext(r.Context())
	log.Info().Int("transactions", len(snap.Transactions)).Msg("Ledger restored from backup")
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"transactions": len(snap.Transactions)})
}
