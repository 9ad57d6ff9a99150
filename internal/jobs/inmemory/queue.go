// Package inmemory runs ingestion jobs inside the API process.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/smart-accountant/internal/jobs"
	"github.com/dvloznov/smart-accountant/internal/logger"
)

// ErrQueueClosed is returned once Stop or Close has been called.
var ErrQueueClosed = errors.New("inmemory: queue is closed")

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)

// Queue feeds jobs to a single worker goroutine, so at most one ingestion
// runs at a time and jobs run in publish order.
type Queue struct {
	pending  chan *jobs.IngestTextJob
	quit     chan struct{}
	finished chan struct{}
	store    jobs.JobStore
	classify jobs.ErrorClassifier

	mu       sync.RWMutex
	started  bool
	closed   bool
	stopOnce sync.Once
}

// NewQueue creates a queue holding up to capacity waiting jobs before
// PublishIngestText blocks. classify may be nil, in which case failed jobs
// carry no error kind.
func NewQueue(capacity int, store jobs.JobStore, classify jobs.ErrorClassifier) *Queue {
	return &Queue{
		pending:  make(chan *jobs.IngestTextJob, capacity),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
		store:    store,
		classify: classify,
	}
}

func (q *Queue) PublishIngestText(ctx context.Context, job *jobs.IngestTextJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.Status = jobs.JobStatusPending

	if err := q.save(ctx, job); err != nil {
		return fmt.Errorf("PublishIngestText: %w", err)
	}

	select {
	case q.pending <- job:
		return nil
	case <-q.quit:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the worker. It may be called once.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.closed:
		return ErrQueueClosed
	case q.started:
		return errors.New("inmemory: queue already started")
	}
	q.started = true

	go q.run(ctx, handler)
	return nil
}

func (q *Queue) run(ctx context.Context, handler jobs.JobHandler) {
	defer close(q.finished)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.quit:
			return
		case job := <-q.pending:
			q.process(ctx, job, handler)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *jobs.IngestTextJob, handler jobs.JobHandler) {
	ctx = logger.WithField(ctx, "job_id", job.JobID)
	log := logger.FromContext(ctx)

	job.MarkRunning(time.Now().UTC())
	if err := q.save(ctx, job); err != nil {
		log.Warn().Err(err).Msg("Failed to record job start")
	}

	ids, err := handler(ctx, job)
	if err != nil {
		kind := ""
		if q.classify != nil {
			kind = q.classify(err)
		}
		job.Fail(time.Now().UTC(), kind, err)
		log.Error().Err(err).Str("error_kind", kind).Msg("Ingestion job failed")
	} else {
		job.Complete(time.Now().UTC(), ids)
		log.Info().Int("transactions", len(ids)).Msg("Ingestion job completed")
	}

	if err := q.save(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to record job outcome")
	}
}

func (q *Queue) save(ctx context.Context, job *jobs.IngestTextJob) error {
	if q.store == nil {
		return nil
	}
	return q.store.SaveJob(ctx, job)
}

// Stop refuses new jobs and waits for the in-flight job to finish. Jobs
// still waiting in the buffer are dropped and stay pending.
func (q *Queue) Stop(ctx context.Context) error {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.quit)
		q.mu.Unlock()
	})

	q.mu.RLock()
	started := q.started
	q.mu.RUnlock()
	if !started {
		return nil
	}

	select {
	case <-q.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}
