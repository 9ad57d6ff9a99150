// Package jobs describes asynchronous ingestion jobs: pasted text waiting to
// be run through the extraction client and appended to the ledger.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by JobStore lookups for unknown ids.
var ErrJobNotFound = errors.New("jobs: job not found")

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IngestTextJob is one queued ingestion request and its outcome.
type IngestTextJob struct {
	JobID  string    `json:"job_id"`
	Text   string    `json:"-"` // not echoed back in listings
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ErrorKind is a short machine-readable failure class, e.g. "parse".
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	TransactionIDs []string `json:"transaction_ids,omitempty"`
}

// MarkRunning records that a worker picked the job up at t.
func (j *IngestTextJob) MarkRunning(t time.Time) {
	j.Status = JobStatusRunning
	j.StartedAt = &t
}

// Complete records a successful run that appended the given transactions.
func (j *IngestTextJob) Complete(t time.Time, transactionIDs []string) {
	j.Status = JobStatusCompleted
	j.CompletedAt = &t
	j.TransactionIDs = transactionIDs
	j.Error, j.ErrorKind = "", ""
}

// Fail records a failed run. Nothing was appended to the ledger.
func (j *IngestTextJob) Fail(t time.Time, kind string, err error) {
	j.Status = JobStatusFailed
	j.CompletedAt = &t
	j.TransactionIDs = nil
	j.ErrorKind = kind
	j.Error = err.Error()
}

// Finished reports whether the job reached a terminal state.
func (j *IngestTextJob) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Publisher enqueues ingestion jobs.
type Publisher interface {
	// PublishIngestText assigns the job an id, stores it as pending and
	// enqueues it.
	PublishIngestText(ctx context.Context, job *IngestTextJob) error
	Close() error
}

// Consumer runs queued jobs through a handler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	// Stop waits for the in-flight job, if any, to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job and returns the ids of the transactions it
// appended. Failed jobs are not retried by the queue.
type JobHandler func(ctx context.Context, job *IngestTextJob) ([]string, error)

// ErrorClassifier maps a handler error to a short failure class.
type ErrorClassifier func(err error) string

// JobStore keeps job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *IngestTextJob) error
	GetJob(ctx context.Context, jobID string) (*IngestTextJob, error)
	// ListJobs returns jobs newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestTextJob, error)
}

// JobFilter narrows ListJobs. Zero values mean no filtering.
type JobFilter struct {
	Status JobStatus
	Limit  int
	Offset int
}
