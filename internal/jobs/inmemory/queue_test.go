package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/smart-accountant/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, status jobs.JobStatus) *jobs.IngestTextJob {
	t.Helper()
	var job *jobs.IngestTextJob
	require.Eventually(t, func() bool {
		j, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		job = j
		return j.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestQueue_ProcessesJobsOneAtATime(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, nil)

	var running, maxRunning int32
	handler := func(ctx context.Context, job *jobs.IngestTextJob) ([]string, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return []string{job.Text + "-tx"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))
	defer q.Close()

	var ids []string
	for _, text := range []string{"a", "b", "c"} {
		job := &jobs.IngestTextJob{Text: text}
		require.NoError(t, q.PublishIngestText(ctx, job))
		assert.NotEmpty(t, job.JobID)
		ids = append(ids, job.JobID)
	}

	for i, id := range ids {
		job := waitForStatus(t, store, id, jobs.JobStatusCompleted)
		assert.Equal(t, []string{[]string{"a", "b", "c"}[i] + "-tx"}, job.TransactionIDs)
		assert.NotNil(t, job.StartedAt)
		assert.NotNil(t, job.CompletedAt)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxRunning))
}

func TestQueue_FailedJobIsNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, store, func(err error) string { return "parse" })

	var calls int32
	handler := func(ctx context.Context, job *jobs.IngestTextJob) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("malformed response")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))
	defer q.Close()

	job := &jobs.IngestTextJob{Text: "x"}
	require.NoError(t, q.PublishIngestText(ctx, job))

	got := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, "parse", got.ErrorKind)
	assert.Equal(t, "malformed response", got.Error)
	assert.Empty(t, got.TransactionIDs)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, NewStore(), nil)
	require.NoError(t, q.Close())

	err := q.PublishIngestText(context.Background(), &jobs.IngestTextJob{Text: "x"})
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), nil), ErrQueueClosed)
	assert.NoError(t, q.Stop(context.Background()))
}

func TestStore_ListJobsNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		status := jobs.JobStatusCompleted
		if id == "mid" {
			status = jobs.JobStatusFailed
		}
		require.NoError(t, s.SaveJob(ctx, &jobs.IngestTextJob{
			JobID:     id,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].JobID)
	assert.Equal(t, "old", all[2].JobID)

	failed, err := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "mid", failed[0].JobID)

	page, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].JobID)

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}
