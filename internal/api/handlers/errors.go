package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/smart-accountant/internal/api/middleware"
	"github.com/dvloznov/smart-accountant/internal/auth"
	"github.com/dvloznov/smart-accountant/internal/jobs"
	"github.com/dvloznov/smart-accountant/internal/ledger"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/pipeline"
)

// Error kinds reported to clients and recorded on failed jobs.
const (
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindConnectivity  = "connectivity"
	KindParse         = "parse"
	KindCollaborator  = "collaborator"
	KindBusy          = "busy"
	KindNotFound      = "not_found"
	KindConflict      = "conflict"
	KindEmpty         = "empty"
	KindInternal      = "internal"
)

// ErrorKind classifies an error returned by the services. It also serves as
// the jobs.ErrorClassifier of the ingestion queue.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pipeline.ErrValidation),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, ledger.ErrClearNotConfirmed),
		errors.Is(err, ledger.ErrInvalidBackup),
		errors.Is(err, auth.ErrInvalidUser),
		errors.Is(err, auth.ErrSelfDelete):
		return KindValidation
	case errors.Is(err, pipeline.ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, pipeline.ErrConnectivity):
		return KindConnectivity
	case errors.Is(err, pipeline.ErrParse):
		return KindParse
	case errors.Is(err, pipeline.ErrCollaborator):
		return KindCollaborator
	case errors.Is(err, ledger.ErrIngestionInProgress):
		return KindBusy
	case errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, jobs.ErrJobNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, auth.ErrUsernameTaken):
		return KindConflict
	case errors.Is(err, ledger.ErrEmptyLedger):
		return KindEmpty
	}
	return KindInternal
}

var _ jobs.ErrorClassifier = ErrorKind

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindEmpty:
		return http.StatusNotFound
	case KindBusy, KindConflict:
		return http.StatusConflict
	case KindParse:
		return http.StatusUnprocessableEntity
	case KindCollaborator:
		return http.StatusBadGateway
	case KindConfiguration, KindConnectivity:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError logs err and writes its classified status. Internal
// errors are not echoed to the client.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, action string) {
	kind := ErrorKind(err)
	status := statusForKind(kind)

	log := logger.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("error_kind", kind).Msg(action + " failed")
	} else {
		log.Warn().Err(err).Str("error_kind", kind).Msg(action + " rejected")
	}

	message := err.Error()
	if kind == KindInternal {
		message = action + " failed"
	}
	if kind == KindCollaborator {
		message = "The extraction service returned an error"
	}
	middleware.WriteJSON(w, status, map[string]string{
		"error": message,
		"kind":  kind,
	})
}
