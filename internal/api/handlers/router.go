package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smart-accountant/internal/api/middleware"
)

// Handlers groups every endpoint handler of the API server.
type Handlers struct {
	Auth    *AuthHandler
	Users   *UsersHandler
	Ledger  *LedgerHandler
	Jobs    *JobsHandler
	Exports *ExportsHandler
}

// NewRouter registers every route and wraps the mux in the middleware
// chain: Recovery, Logger, RequestID, CORS, Auth.
func NewRouter(h Handlers, authn middleware.Authenticator, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("GET /api/auth/me", h.Auth.Me)

	// Ledger endpoints
	mux.HandleFunc("GET /api/ledger", h.Ledger.GetLedger)
	mux.HandleFunc("GET /api/summary", h.Ledger.GetSummary)
	mux.HandleFunc("GET /api/share", h.Ledger.Share)
	mux.HandleFunc("POST /api/ingest", h.Ledger.Ingest)
	mux.HandleFunc("GET /api/backup", h.Ledger.Backup)
	mux.HandleFunc("POST /api/restore", h.Ledger.Restore)

	// Transaction edits
	mux.HandleFunc("PATCH /api/transactions/{id}", h.Ledger.UpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.Ledger.DeleteTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/cycle-type", h.Ledger.CycleType)
	mux.HandleFunc("POST /api/transactions/{id}/cycle-currency", h.Ledger.CycleCurrency)
	mux.HandleFunc("POST /api/transactions/clear", h.Ledger.Clear)

	// Rate table
	mux.HandleFunc("GET /api/rates", h.Ledger.ListRates)
	mux.HandleFunc("POST /api/rates", h.Ledger.AddCurrency)
	mux.HandleFunc("PUT /api/rates/{currency}", h.Ledger.SetRate)
	mux.HandleFunc("DELETE /api/rates/{currency}", h.Ledger.RemoveCurrency)

	// Jobs endpoints
	mux.HandleFunc("POST /api/jobs", h.Jobs.CreateJob)
	mux.HandleFunc("GET /api/jobs", h.Jobs.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", h.Jobs.GetJob)

	// Exports
	mux.HandleFunc("POST /api/export/sheets", h.Exports.ExportSheets)
	mux.HandleFunc("POST /api/export/notion", h.Exports.ExportNotion)

	// Admin user management
	mux.HandleFunc("GET /api/users", middleware.RequireAdmin(h.Users.ListUsers))
	mux.HandleFunc("POST /api/users", middleware.RequireAdmin(h.Users.CreateUser))
	mux.HandleFunc("PUT /api/users/{id}", middleware.RequireAdmin(h.Users.UpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", middleware.RequireAdmin(h.Users.DeleteUser))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(authn)(mux),
				),
			),
		),
	)
}
