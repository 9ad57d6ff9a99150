package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/smart-accountant/internal/api/middleware"
	"github.com/dvloznov/smart-accountant/internal/jobs"
	"github.com/dvloznov/smart-accountant/internal/ledger"
	"github.com/dvloznov/smart-accountant/internal/logger"
	"github.com/dvloznov/smart-accountant/internal/pipeline"
)

// JobsHandler handles asynchronous ingestion endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore) *JobsHandler {
	return &JobsHandler{
		publisher: publisher,
		store:     store,
	}
}

// IngestJobHandler returns the queue handler that runs one ingestion job
// against svc. A job that arrives while a synchronous POST /api/ingest is
// running waits for it rather than failing.
func IngestJobHandler(svc *ledger.Service) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.IngestTextJob) ([]string, error) {
		txs, err := svc.IngestWait(ctx, job.Text)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(txs))
		for i, tx := range txs {
			ids[i] = tx.ID
		}
		return ids, nil
	}
}

// CreateJob handles POST /api/jobs
func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Reject blank input up front instead of queueing a job that must fail.
	if strings.TrimSpace(req.Text) == "" {
		writeServiceError(r.Context(), w, pipeline.ErrValidation, "Create job")
		return
	}

	ctx := r.Context()
	log := logger.FromContext(ctx)
	job := &jobs.IngestTextJob{Text: req.Text}
	if err := h.publisher.PublishIngestText(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue ingestion job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	// The worker owns job from here on; only the id is read back.
	jobID := job.JobID
	log.Info().Str("job_id", jobID).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(jobs.JobStatusPending),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		writeServiceError(r.Context(), w, err, "Get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeServiceError(r.Context(), w, err, "List jobs")
		return
	}
	if jobsList == nil {
		jobsList = []*jobs.IngestTextJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
